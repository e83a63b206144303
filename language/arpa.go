package language

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ieee0824/wfstdec/internal/mathutil"
)

// ErrARPA is wrapped by every ARPA parse error.
var ErrARPA = errors.New("language: malformed ARPA")

// MaxOrder is the highest n-gram order the model stores.
const MaxOrder = 3

// LoadARPA reads a language model in ARPA format.
// Log probabilities in ARPA files are base-10; they are converted to natural log.
// Sections above MaxOrder are skipped. The number of entries read per order
// must match the \data\ header.
func LoadARPA(r io.Reader) (*NGramModel, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: line %d: %s", ErrARPA, line, fmt.Sprintf(format, args...))
	}

	// Skip until \data\ section
	s, ok := next()
	for ok && s != `\data\` {
		s, ok = next()
	}
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fail(`missing \data\ section`)
	}

	declared := map[int]int{}
	maxOrder := 0
	for s, ok = next(); ok && strings.HasPrefix(s, "ngram "); s, ok = next() {
		o, n, found := strings.Cut(s[len("ngram "):], "=")
		if !found {
			return nil, fail("bad count line %q", s)
		}
		order, err1 := strconv.Atoi(strings.TrimSpace(o))
		count, err2 := strconv.Atoi(strings.TrimSpace(n))
		if err1 != nil || err2 != nil || order < 1 {
			return nil, fail("bad count line %q", s)
		}
		declared[order] = count
		maxOrder = max(maxOrder, order)
	}
	model := NewNGramModel(min(maxOrder, MaxOrder))

	read := map[int]int{}
	order := 0
	for ; ok; s, ok = next() {
		switch {
		case s == `\end\`:
			for o, n := range declared {
				if o <= MaxOrder && read[o] != n {
					return nil, fail("%d-grams: header declares %d, found %d", o, n, read[o])
				}
			}
			return model, nil
		case strings.HasPrefix(s, `\`) && strings.HasSuffix(s, "-grams:"):
			o, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(s, `\`), "-grams:"))
			if err != nil || o < 1 {
				return nil, fail("bad section header %q", s)
			}
			order = o
		case order == 0:
			return nil, fail("entry outside any n-gram section")
		case order > MaxOrder:
		default:
			if err := parseNGramLine(model, order, s); err != nil {
				return nil, fail("%v", err)
			}
			read[order]++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, fail(`missing \end\ marker`)
}

func parseNGramLine(model *NGramModel, order int, line string) error {
	fields := strings.Fields(line)
	if len(fields) < order+1 {
		return fmt.Errorf("too few fields for %d-gram: %q", order, line)
	}

	logProb, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("parse log prob: %w", err)
	}
	logProb = mathutil.FromLog10(logProb)

	words := fields[1 : order+1]

	var logBackoff float64
	if len(fields) > order+1 {
		bo, err := strconv.ParseFloat(fields[order+1], 64)
		if err != nil {
			return fmt.Errorf("parse backoff: %w", err)
		}
		logBackoff = mathutil.FromLog10(bo)
	}

	entry := ngramEntry{LogProb: logProb, LogBackoff: logBackoff}

	switch order {
	case 1:
		model.Unigrams[words[0]] = entry
	case 2:
		model.Bigrams[[2]string{words[0], words[1]}] = entry
	case 3:
		model.Trigrams[[3]string{words[0], words[1], words[2]}] = entry
	}

	return nil
}
