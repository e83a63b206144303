// Package decoder implements frame-synchronous token-passing beam search over
// a weighted automaton composed on the fly with a deterministic language model.
package decoder

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ieee0824/wfstdec/internal/hashlist"
	"github.com/ieee0824/wfstdec/internal/mempool"
	"github.com/ieee0824/wfstdec/wfst"
)

const initialIndexSize = 1000

// Decoder searches one utterance at a time. The graph and LM may be shared by
// many decoders; a Decoder itself must not be used concurrently.
type Decoder struct {
	fst *wfst.Wfst
	lm  wfst.DeterministicOnDemand
	cfg Config
	log *zap.Logger

	toks   *hashlist.HashList[mempool.Handle]
	tokens *mempool.Pool[token]
	queue  []uint64
	costs  []float64

	numFramesDecoded int
	finalized        bool
	failed           error
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the logger. The default comes from Logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) { d.log = l }
}

// New returns a decoder for graph. lm may be nil, in which case output labels
// pass through unscored.
func New(graph *wfst.Wfst, lm wfst.DeterministicOnDemand, cfg Config, opts ...Option) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if graph == nil || graph.NumStates() == 0 {
		return nil, ErrEmptyGraph
	}
	d := &Decoder{
		fst:              graph,
		lm:               lm,
		cfg:              cfg,
		log:              Logger(),
		toks:             hashlist.New[mempool.Handle](initialIndexSize),
		tokens:           mempool.New[token](cfg.TokenPoolRealloc),
		numFramesDecoded: -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the decoder's parameters.
func (d *Decoder) Config() Config { return d.cfg }

// Graph returns the graph being searched.
func (d *Decoder) Graph() *wfst.Wfst { return d.fst }

// LM returns the composed language model, or nil.
func (d *Decoder) LM() wfst.DeterministicOnDemand { return d.lm }

// InitDecoding discards any previous search and seeds a single token at the
// composite start state, then expands its epsilon closure.
func (d *Decoder) InitDecoding() error {
	d.clearList(d.toks.Clear())
	d.failed = nil
	d.finalized = false

	var lmStart wfst.StateID
	if d.lm != nil {
		lmStart = d.lm.Start()
	}
	start := d.fst.Start()
	root := wfst.Arc{ILabel: wfst.Epsilon, OLabel: wfst.Epsilon, Weight: 0, Dst: start}
	d.toks.Insert(pairID(start, lmStart), d.newToken(mempool.Nil, root, 0))

	err := d.ProcessNonemitting(math.MaxFloat32)
	d.numFramesDecoded = 0
	return err
}

// Decode runs a whole utterance: InitDecoding, then one emitting and one
// non-emitting step per frame until the decodable reports its last frame.
func (d *Decoder) Decode(dec Decodable) error {
	if err := d.InitDecoding(); err != nil {
		return err
	}
	for !dec.IsLastFrame(d.numFramesDecoded - 1) {
		if d.numFramesDecoded >= dec.NumFramesReady() {
			return fmt.Errorf("%w: frame %d", ErrFrameNotReady, d.numFramesDecoded)
		}
		if err := d.step(dec); err != nil {
			return err
		}
	}
	d.FinalizeDecoding()
	return nil
}

// AdvanceDecoding decodes the frames dec has ready beyond those already
// decoded, at most maxFrames of them when maxFrames is non-negative.
func (d *Decoder) AdvanceDecoding(dec Decodable, maxFrames int) error {
	switch {
	case d.numFramesDecoded < 0:
		return ErrNotInitialized
	case d.finalized:
		return ErrFinalized
	case d.failed != nil:
		return d.failed
	}
	ready := dec.NumFramesReady()
	if ready < d.numFramesDecoded {
		return fmt.Errorf("%w: %d ready, %d decoded", ErrFramesDecreased, ready, d.numFramesDecoded)
	}
	target := ready
	if maxFrames >= 0 && d.numFramesDecoded+maxFrames < target {
		target = d.numFramesDecoded + maxFrames
	}
	for d.numFramesDecoded < target {
		if err := d.step(dec); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeDecoding marks the utterance complete. The surviving tokens stay
// available to traceback until the next InitDecoding.
func (d *Decoder) FinalizeDecoding() {
	if d.numFramesDecoded >= 0 {
		d.finalized = true
	}
}

// NumFramesDecoded returns the frames consumed so far, or -1 before the first
// InitDecoding.
func (d *Decoder) NumFramesDecoded() int { return d.numFramesDecoded }

func (d *Decoder) step(dec Decodable) error {
	cutoff, err := d.ProcessEmitting(dec)
	if err != nil {
		return err
	}
	return d.ProcessNonemitting(cutoff)
}

// ProcessEmitting consumes frame NumFramesDecoded: every surviving token
// follows its non-epsilon arcs, scored by dec. It returns the cutoff the
// following ProcessNonemitting must apply.
func (d *Decoder) ProcessEmitting(dec Decodable) (float64, error) {
	switch {
	case d.numFramesDecoded < 0:
		return 0, ErrNotInitialized
	case d.finalized:
		return 0, ErrFinalized
	case d.failed != nil:
		return 0, d.failed
	}
	frame := d.numFramesDecoded
	prev := d.toks.Clear()
	c := d.getCutoff(prev)
	d.possiblyResizeIndex(c.count)
	activeTokens.Observe(float64(c.count))
	switch c.rule {
	case ruleMaxActive:
		cutoffByMaxActive.Inc()
	case ruleMinActive:
		cutoffByMinActive.Inc()
	default:
		cutoffByBeam.Inc()
	}

	nextCutoff := math.Inf(1)
	adaptiveBeam := float64(c.adaptiveBeam)

	// Seed nextCutoff from the best token so most hopeless arcs are never
	// allocated.
	if c.best != hashlist.Nil {
		state, lmState := splitPair(d.toks.Key(c.best))
		cost := d.cost(d.toks.Val(c.best))
		for _, arc := range d.fst.Arcs(state) {
			if arc.ILabel == wfst.Epsilon {
				continue
			}
			if _, err := d.propagateLm(lmState, &arc); err != nil {
				return 0, d.abort(err, prev)
			}
			acCost := -dec.LogLikelihood(frame, arc.ILabel)
			w := cost + float64(arc.Weight) + float64(acCost)
			if w+adaptiveBeam < nextCutoff {
				nextCutoff = w + adaptiveBeam
			}
		}
	}

	for e := prev; e != hashlist.Nil; {
		h := d.toks.Val(e)
		cost := d.cost(h)
		if cost < c.weight {
			state, lmState := splitPair(d.toks.Key(e))
			for _, arc := range d.fst.Arcs(state) {
				if arc.ILabel == wfst.Epsilon {
					continue
				}
				nextLm, err := d.propagateLm(lmState, &arc)
				if err != nil {
					return 0, d.abort(err, e)
				}
				acCost := -dec.LogLikelihood(frame, arc.ILabel)
				w := cost + float64(arc.Weight) + float64(acCost)
				if w < nextCutoff {
					if w+adaptiveBeam < nextCutoff {
						nextCutoff = w + adaptiveBeam
					}
					d.recombine(pairID(arc.Dst, nextLm), d.newToken(h, arc, acCost))
				}
			}
		}
		next := d.toks.Next(e)
		d.releaseToken(h)
		d.toks.Delete(e)
		e = next
	}

	d.numFramesDecoded++
	framesDecodedTotal.Inc()
	if ce := d.log.Check(zapcore.DebugLevel, "frame decoded"); ce != nil {
		ce.Write(
			zap.Int("frame", frame),
			zap.Int("active", c.count),
			zap.Int("expanded", d.toks.Len()),
			zap.Stringer("rule", c.rule),
			zap.Float64("cutoff", c.weight),
			zap.Float32("adaptive_beam", c.adaptiveBeam),
		)
	}
	return nextCutoff, nil
}

// ProcessNonemitting expands the epsilon closure of the current tokens,
// dropping anything whose cost exceeds cutoff. Newly created or improved
// composite states are revisited until no further change.
func (d *Decoder) ProcessNonemitting(cutoff float64) error {
	if d.failed != nil {
		return d.failed
	}
	d.queue = d.queue[:0]
	for e := d.toks.Entries(); e != hashlist.Nil; e = d.toks.Next(e) {
		d.queue = append(d.queue, d.toks.Key(e))
	}

	for len(d.queue) > 0 {
		key := d.queue[len(d.queue)-1]
		d.queue = d.queue[:len(d.queue)-1]

		e, ok := d.toks.Find(key)
		if !ok {
			continue
		}
		h := d.toks.Val(e)
		if d.cost(h) > cutoff {
			continue
		}
		state, lmState := splitPair(key)
		for _, arc := range d.fst.Arcs(state) {
			if arc.ILabel != wfst.Epsilon {
				continue
			}
			nextLm, err := d.propagateLm(lmState, &arc)
			if err != nil {
				return d.abort(err, hashlist.Nil)
			}
			nt := d.newToken(h, arc, 0)
			if d.cost(nt) > cutoff {
				d.releaseToken(nt)
				continue
			}
			next := pairID(arc.Dst, nextLm)
			if d.recombine(next, nt) {
				d.queue = append(d.queue, next)
			}
		}
	}
	return nil
}

// recombine offers tok for the composite state key. It keeps whichever of
// tok and the current occupant is cheaper, the occupant on a tie, and reports
// whether tok was kept.
func (d *Decoder) recombine(key uint64, tok mempool.Handle) bool {
	e, ok := d.toks.Find(key)
	if !ok {
		d.toks.Insert(key, tok)
		return true
	}
	old := d.toks.Val(e)
	if d.cost(old) > d.cost(tok) {
		d.releaseToken(old)
		d.toks.SetVal(e, tok)
		return true
	}
	d.releaseToken(tok)
	return false
}

// propagateLm rescores arc through the LM when it emits a word. The arc's
// weight gains the LM weight, its output label becomes the LM's, and the
// returned state is the LM state after the word.
func (d *Decoder) propagateLm(lmState wfst.StateID, arc *wfst.Arc) (wfst.StateID, error) {
	if d.lm == nil || arc.OLabel == wfst.Epsilon {
		return lmState, nil
	}
	lmArc, ok := d.lm.GetArc(lmState, arc.OLabel)
	if !ok {
		return 0, &LMMismatchError{LMState: lmState, Label: arc.OLabel}
	}
	arc.Weight += lmArc.Weight
	arc.OLabel = lmArc.OLabel
	return lmArc.Dst, nil
}

// abort records a fatal search error. rest is a detached list still owned by
// the caller; its tokens are released so pool accounting stays exact.
func (d *Decoder) abort(err error, rest hashlist.Handle) error {
	d.clearList(rest)
	d.failed = err
	if lerr, ok := err.(*LMMismatchError); ok {
		lmMismatchTotal.Inc()
		d.log.Error("language model mismatch",
			zap.Uint32("lm_state", uint32(lerr.LMState)),
			zap.Uint32("label", uint32(lerr.Label)),
			zap.Int("frame", d.numFramesDecoded),
		)
	}
	return err
}

// clearList releases every entry from e onwards along with its token.
func (d *Decoder) clearList(e hashlist.Handle) {
	for e != hashlist.Nil {
		next := d.toks.Next(e)
		d.releaseToken(d.toks.Val(e))
		d.toks.Delete(e)
		e = next
	}
}

func (d *Decoder) possiblyResizeIndex(numToks int) {
	if n := int(float32(numToks) * d.cfg.HashRatio); n > d.toks.Capacity() {
		d.toks.SetCapacity(n)
	}
}

// Stats is a snapshot of the decoder's internal occupancy.
type Stats struct {
	NumFramesDecoded int
	ActiveTokens     int // entries in the current index generation
	LiveTokens       int // tokens referenced by an entry or a chain
	FreeTokens       int // pooled tokens ready for reuse
	IndexCapacity    int
}

// Stats reports occupancy counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		NumFramesDecoded: d.numFramesDecoded,
		ActiveTokens:     d.toks.Len(),
		LiveTokens:       d.tokens.NumUsed(),
		FreeTokens:       d.tokens.NumFree(),
		IndexCapacity:    d.toks.Capacity(),
	}
}
