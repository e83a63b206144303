package language

import (
	"bufio"
	"bytes"
	"cmp"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
)

// Builder accumulates sentences and builds an N-gram language model.
type Builder struct {
	order     int
	sentences int
	unigrams  map[string]int
	bigrams   map[[2]string]int
	trigrams  map[[3]string]int
}

// NewBuilder creates a new N-gram builder.
// order is clamped to 2 (bigram) or 3 (trigram).
func NewBuilder(order int) *Builder {
	return &Builder{
		order:    min(max(order, 2), MaxOrder),
		unigrams: make(map[string]int),
		bigrams:  make(map[[2]string]int),
		trigrams: make(map[[3]string]int),
	}
}

// Order returns the n-gram order being built.
func (b *Builder) Order() int { return b.order }

// NumSentences returns how many sentences were added.
func (b *Builder) NumSentences() int { return b.sentences }

// AddSentence adds a tokenized sentence. <s> and </s> are added automatically.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	b.sentences++
	seq := make([]string, 0, len(words)+2)
	seq = append(seq, SentenceStart)
	seq = append(seq, words...)
	seq = append(seq, SentenceEnd)

	for i := range seq {
		b.unigrams[seq[i]]++
		if i >= 1 {
			b.bigrams[[2]string{seq[i-1], seq[i]}]++
		}
		if b.order >= 3 && i >= 2 {
			b.trigrams[[3]string{seq[i-2], seq[i-1], seq[i]}]++
		}
	}
}

// AddText adds one sentence per non-blank line of r, words separated by
// whitespace. It returns the number of sentences added.
func (b *Builder) AddText(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		if words := strings.Fields(sc.Text()); len(words) > 0 {
			b.AddSentence(words)
			n++
		}
	}
	return n, sc.Err()
}

// Model builds the smoothed model directly, equivalent to loading the output
// of WriteARPA.
func (b *Builder) Model() (*NGramModel, error) {
	var buf bytes.Buffer
	if err := b.WriteARPA(&buf); err != nil {
		return nil, err
	}
	return LoadARPA(&buf)
}

// contextStats holds Witten-Bell counts for one history: N(h) tokens and T(h)
// distinct followers.
type contextStats struct {
	total, types int
}

func (c contextStats) prob(count int) float64 {
	return float64(count) / float64(c.total+c.types)
}

type arpaEntry[K any] struct {
	key        K
	logProb    float64 // log10
	logBackoff float64 // log10
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
// Uses Witten-Bell smoothing.
func (b *Builder) WriteARPA(w io.Writer) error {
	uniTotal := 0
	for _, c := range b.unigrams {
		uniTotal += c
	}
	uniProb := func(word string) float64 {
		return float64(b.unigrams[word]) / float64(uniTotal)
	}

	biCtx := make(map[string]contextStats)
	for key, c := range b.bigrams {
		s := biCtx[key[0]]
		s.total += c
		s.types++
		biCtx[key[0]] = s
	}
	triCtx := make(map[[2]string]contextStats)
	for key, c := range b.trigrams {
		ctx := [2]string{key[0], key[1]}
		s := triCtx[ctx]
		s.total += c
		s.types++
		triCtx[ctx] = s
	}

	// Per-history mass of the observed higher-order entries and of the
	// lower-order distribution over the same followers.
	biSeen := make(map[string][2]float64)
	for key, c := range b.bigrams {
		m := biSeen[key[0]]
		m[0] += biCtx[key[0]].prob(c)
		m[1] += uniProb(key[1])
		biSeen[key[0]] = m
	}
	triSeen := make(map[[2]string][2]float64)
	for key, c := range b.trigrams {
		ctx := [2]string{key[0], key[1]}
		m := triSeen[ctx]
		m[0] += triCtx[ctx].prob(c)
		if bc, ok := b.bigrams[[2]string{key[1], key[2]}]; ok {
			m[1] += biCtx[key[1]].prob(bc)
		} else {
			m[1] += uniProb(key[2])
		}
		triSeen[ctx] = m
	}
	backoff := func(m [2]float64, ok bool) float64 {
		if !ok || m[1] >= 1.0 {
			return 0
		}
		return math.Log10((1.0 - m[0]) / (1.0 - m[1]))
	}

	unis := make([]arpaEntry[string], 0, len(b.unigrams))
	for word := range b.unigrams {
		m, ok := biSeen[word]
		unis = append(unis, arpaEntry[string]{word, math.Log10(uniProb(word)), backoff(m, ok)})
	}
	slices.SortFunc(unis, func(x, y arpaEntry[string]) int { return cmp.Compare(x.key, y.key) })

	bis := make([]arpaEntry[[2]string], 0, len(b.bigrams))
	for key, count := range b.bigrams {
		var bo float64
		if b.order >= 3 {
			m, ok := triSeen[key]
			bo = backoff(m, ok)
		}
		bis = append(bis, arpaEntry[[2]string]{key, math.Log10(biCtx[key[0]].prob(count)), bo})
	}
	slices.SortFunc(bis, func(x, y arpaEntry[[2]string]) int {
		return cmp.Or(cmp.Compare(x.key[0], y.key[0]), cmp.Compare(x.key[1], y.key[1]))
	})

	var tris []arpaEntry[[3]string]
	if b.order >= 3 {
		tris = make([]arpaEntry[[3]string], 0, len(b.trigrams))
		for key, count := range b.trigrams {
			ctx := [2]string{key[0], key[1]}
			tris = append(tris, arpaEntry[[3]string]{key, math.Log10(triCtx[ctx].prob(count)), 0})
		}
		slices.SortFunc(tris, func(x, y arpaEntry[[3]string]) int {
			return cmp.Or(cmp.Compare(x.key[0], y.key[0]), cmp.Compare(x.key[1], y.key[1]), cmp.Compare(x.key[2], y.key[2]))
		})
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, `\data\`)
	fmt.Fprintf(bw, "ngram 1=%d\n", len(unis))
	fmt.Fprintf(bw, "ngram 2=%d\n", len(bis))
	if len(tris) > 0 {
		fmt.Fprintf(bw, "ngram 3=%d\n", len(tris))
	}

	fmt.Fprint(bw, "\n\\1-grams:\n")
	for _, u := range unis {
		writeEntry(bw, u.logProb, u.key, u.logBackoff)
	}
	fmt.Fprint(bw, "\n\\2-grams:\n")
	for _, bi := range bis {
		writeEntry(bw, bi.logProb, bi.key[0]+" "+bi.key[1], bi.logBackoff)
	}
	if len(tris) > 0 {
		fmt.Fprint(bw, "\n\\3-grams:\n")
		for _, tri := range tris {
			writeEntry(bw, tri.logProb, tri.key[0]+" "+tri.key[1]+" "+tri.key[2], 0)
		}
	}
	fmt.Fprint(bw, "\n\\end\\\n")
	return bw.Flush()
}

func writeEntry(w io.Writer, logProb float64, words string, logBackoff float64) {
	if logBackoff != 0 {
		fmt.Fprintf(w, "%.6f\t%s\t%.6f\n", logProb, words, logBackoff)
	} else {
		fmt.Fprintf(w, "%.6f\t%s\n", logProb, words)
	}
}
