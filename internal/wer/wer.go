// Package wer scores recognized word sequences against references.
package wer

// Counts holds the edit operations of a minimum-cost alignment.
type Counts struct {
	Sub, Ins, Del int
	RefWords      int
}

// Errors returns the total number of edits.
func (c Counts) Errors() int { return c.Sub + c.Ins + c.Del }

// Rate returns Errors divided by the reference length. An empty reference
// gives 0 when the hypothesis is empty too and 1 otherwise.
func (c Counts) Rate() float64 {
	if c.RefWords == 0 {
		if c.Errors() == 0 {
			return 0
		}
		return 1
	}
	return float64(c.Errors()) / float64(c.RefWords)
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Sub += o.Sub
	c.Ins += o.Ins
	c.Del += o.Del
	c.RefWords += o.RefWords
}

// EditDistance computes the Levenshtein distance between two sequences.
func EditDistance[T comparable](a, b []T) int {
	return Align(a, b).Errors()
}

// Align finds a minimum-cost alignment of hyp against ref. Among equal-cost
// alignments substitutions are preferred over an insertion plus a deletion.
func Align[T comparable](ref, hyp []T) Counts {
	lr, lh := len(ref), len(hyp)
	if lr == 0 {
		return Counts{Ins: lh}
	}
	if lh == 0 {
		return Counts{Del: lr, RefWords: lr}
	}

	// Single-row DP over hyp positions.
	prev := make([]Counts, lh+1)
	cur := make([]Counts, lh+1)
	for j := 0; j <= lh; j++ {
		prev[j] = Counts{Ins: j}
	}
	for i := 1; i <= lr; i++ {
		cur[0] = Counts{Del: i}
		for j := 1; j <= lh; j++ {
			sub := prev[j-1]
			if ref[i-1] != hyp[j-1] {
				sub.Sub++
			}
			del := prev[j]
			del.Del++
			ins := cur[j-1]
			ins.Ins++

			m := sub
			if del.Errors() < m.Errors() {
				m = del
			}
			if ins.Errors() < m.Errors() {
				m = ins
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	c := prev[lh]
	c.RefWords = lr
	return c
}
