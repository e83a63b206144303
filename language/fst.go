package language

import (
	"fmt"
	"math"

	"github.com/ieee0824/wfstdec/internal/mathutil"
	"github.com/ieee0824/wfstdec/wfst"
)

const (
	SentenceStart = "<s>"
	SentenceEnd   = "</s>"
)

// Digits of a packed history. Word label l is stored as l+digitOffset.
const (
	digitNone   = 0
	digitStart  = 1
	digitOffset = 2
)

// Fst exposes an NGramModel as a deterministic on-demand automaton over the
// labels of a word symbol table. A state is the last Order-1 words, packed
// into a StateID, so lookups never mutate the Fst and it can be shared by
// concurrent decoders.
type Fst struct {
	model   *NGramModel
	words   *wfst.SymbolTable
	scale   float64
	base    uint64
	histLen int
}

var _ wfst.DeterministicOnDemand = (*Fst)(nil)

// FstOption configures an Fst.
type FstOption func(*Fst)

// WithScale multiplies every LM cost, usually called the LM weight.
func WithScale(s float64) FstOption {
	return func(f *Fst) { f.scale = s }
}

// NewFst wraps model for decoding against words, normally the output table
// of the decoding graph.
func NewFst(model *NGramModel, words *wfst.SymbolTable, opts ...FstOption) (*Fst, error) {
	if model == nil || words == nil {
		return nil, fmt.Errorf("language: model and word table are required")
	}
	f := &Fst{
		model: model,
		words: words,
		scale: 1,
		base:  uint64(words.Size()) + digitOffset,
	}
	// LogProb looks back at most two words.
	f.histLen = min(max(model.Order-1, 0), 2)
	for _, opt := range opts {
		opt(f)
	}
	states := 1.0
	for i := 0; i < f.histLen; i++ {
		states *= float64(f.base)
	}
	if states > float64(math.MaxUint32) {
		return nil, fmt.Errorf("language: %d words at order %d exceed the state space", words.Size(), model.Order)
	}
	return f, nil
}

// Start returns the state holding only the sentence start.
func (f *Fst) Start() wfst.StateID {
	if f.histLen == 0 {
		return 0
	}
	return wfst.StateID(digitStart)
}

// GetArc scores word label l after history s. It fails when l is not in the
// word table or the model has no probability for it.
func (f *Fst) GetArc(s wfst.StateID, l wfst.Label) (wfst.Arc, bool) {
	word, ok := f.words.Symbol(l)
	if !ok || l == wfst.Epsilon {
		return wfst.Arc{}, false
	}
	var buf [2]string
	hist := f.history(s, buf[:0])
	lp := f.model.LogProb(hist, word)
	if lp <= mathutil.LogZero {
		return wfst.Arc{}, false
	}
	return wfst.Arc{
		ILabel: l,
		OLabel: l,
		Weight: mathutil.ToCost(lp, f.scale),
		Dst:    f.push(s, l),
	}, true
}

// FinalWeight returns the cost of ending the sentence in state s.
func (f *Fst) FinalWeight(s wfst.StateID) wfst.Weight {
	var buf [2]string
	return mathutil.ToCost(f.model.LogProb(f.history(s, buf[:0]), SentenceEnd), f.scale)
}

// History returns the words encoded in s, oldest first.
func (f *Fst) History(s wfst.StateID) []string {
	return f.history(s, nil)
}

func (f *Fst) history(s wfst.StateID, dst []string) []string {
	if f.histLen == 0 {
		return dst
	}
	var digits [2]uint64
	v := uint64(s)
	for i := f.histLen - 1; i >= 0; i-- {
		digits[i] = v % f.base
		v /= f.base
	}
	for _, d := range digits[:f.histLen] {
		switch d {
		case digitNone:
		case digitStart:
			dst = append(dst, SentenceStart)
		default:
			w, _ := f.words.Symbol(wfst.Label(d - digitOffset))
			dst = append(dst, w)
		}
	}
	return dst
}

// push appends l to history s, dropping the oldest word.
func (f *Fst) push(s wfst.StateID, l wfst.Label) wfst.StateID {
	if f.histLen == 0 {
		return 0
	}
	mod := uint64(1)
	for i := 1; i < f.histLen; i++ {
		mod *= f.base
	}
	v := (uint64(s)%mod)*f.base + uint64(l) + digitOffset
	return wfst.StateID(v)
}
