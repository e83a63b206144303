package language

import (
	"maps"
	"slices"

	"github.com/ieee0824/wfstdec/internal/mathutil"
)

// NGramModel is a backoff n-gram model of order at most 3. Probabilities are
// natural logs.
type NGramModel struct {
	Order    int // 1 to 3
	Unigrams map[string]ngramEntry
	Bigrams  map[[2]string]ngramEntry
	Trigrams map[[3]string]ngramEntry

	// OOVLogProb is the natural-log probability given to words missing from
	// the unigrams. Zero leaves them at mathutil.LogZero.
	OOVLogProb float64
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty model.
func NewNGramModel(order int) *NGramModel {
	return &NGramModel{
		Order:    order,
		Unigrams: make(map[string]ngramEntry),
		Bigrams:  make(map[[2]string]ngramEntry),
		Trigrams: make(map[[3]string]ngramEntry),
	}
}

// LogProb scores word after history. Only the last Order-1 words of history
// matter.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	n := max(min(len(history), m.Order-1, 2), 0)
	return m.backoff(history[len(history)-n:], word)
}

// backoff scores word after ctx. When the full n-gram is missing it pays the
// backoff weight of ctx, zero for an unknown context, and drops the oldest
// context word.
func (m *NGramModel) backoff(ctx []string, word string) float64 {
	switch len(ctx) {
	case 0:
		if e, ok := m.Unigrams[word]; ok {
			return e.LogProb
		}
		if m.OOVLogProb != 0 {
			return m.OOVLogProb
		}
		return mathutil.LogZero
	case 1:
		if e, ok := m.Bigrams[[2]string{ctx[0], word}]; ok {
			return e.LogProb
		}
		return m.Unigrams[ctx[0]].LogBackoff + m.backoff(nil, word)
	default:
		if e, ok := m.Trigrams[[3]string{ctx[0], ctx[1], word}]; ok {
			return e.LogProb
		}
		return m.Bigrams[[2]string{ctx[0], ctx[1]}].LogBackoff + m.backoff(ctx[1:], word)
	}
}

// SentenceLogProb scores words as a full sentence between <s> and </s>.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	history := make([]string, 0, len(words)+1)
	history = append(history, SentenceStart)
	total := 0.0
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	return total + m.LogProb(history, SentenceEnd)
}

// Contains reports whether word is in the unigram vocabulary.
func (m *NGramModel) Contains(word string) bool {
	_, ok := m.Unigrams[word]
	return ok
}

// Vocab returns the unigram vocabulary, sorted.
func (m *NGramModel) Vocab() []string {
	return slices.Sorted(maps.Keys(m.Unigrams))
}
