package decoder

import (
	"math"

	"github.com/ieee0824/wfstdec/internal/hashlist"
)

type cutoffRule uint8

const (
	ruleBeam cutoffRule = iota
	ruleMaxActive
	ruleMinActive
)

func (r cutoffRule) String() string {
	switch r {
	case ruleMaxActive:
		return "max_active"
	case ruleMinActive:
		return "min_active"
	}
	return "beam"
}

// cutoff is the pruning decision for one frame.
type cutoff struct {
	weight       float64         // tokens at or above this cost are dropped
	adaptiveBeam float32         // beam to apply to the next frame's tokens
	best         hashlist.Handle // lowest-cost entry, or hashlist.Nil
	count        int
	rule         cutoffRule
}

// getCutoff scans the list starting at head and combines the beam with the
// max-active and min-active bounds. The beam is narrowed to keep at most
// MaxActive tokens and widened to keep at least MinActive.
func (d *Decoder) getCutoff(head hashlist.Handle) cutoff {
	c := cutoff{best: hashlist.Nil}
	bestCost := math.Inf(1)
	beam := d.cfg.Beam

	if d.cfg.MaxActive == Unlimited && d.cfg.MinActive == 0 {
		for e := head; e != hashlist.Nil; e = d.toks.Next(e) {
			if w := d.cost(d.toks.Val(e)); w < bestCost {
				bestCost = w
				c.best = e
			}
			c.count++
		}
		c.weight = bestCost + float64(beam)
		c.adaptiveBeam = beam
		return c
	}

	d.costs = d.costs[:0]
	for e := head; e != hashlist.Nil; e = d.toks.Next(e) {
		w := d.cost(d.toks.Val(e))
		d.costs = append(d.costs, w)
		if w < bestCost {
			bestCost = w
			c.best = e
		}
	}
	c.count = len(d.costs)

	beamCutoff := bestCost + float64(beam)
	minActiveCutoff := math.Inf(1)
	maxActiveCutoff := math.Inf(1)

	if c.count > d.cfg.MaxActive {
		nthElement(d.costs, d.cfg.MaxActive)
		maxActiveCutoff = d.costs[d.cfg.MaxActive]
	}
	if maxActiveCutoff < beamCutoff {
		c.weight = maxActiveCutoff
		c.adaptiveBeam = float32(maxActiveCutoff - bestCost + float64(d.cfg.BeamDelta))
		c.rule = ruleMaxActive
		return c
	}

	if c.count > d.cfg.MinActive {
		if d.cfg.MinActive == 0 {
			minActiveCutoff = bestCost
		} else {
			// After the max-active selection the lowest MaxActive costs
			// already sit in the prefix.
			end := c.count
			if c.count > d.cfg.MaxActive {
				end = d.cfg.MaxActive
			}
			nthElement(d.costs[:end], d.cfg.MinActive)
			minActiveCutoff = d.costs[d.cfg.MinActive]
		}
	}
	if minActiveCutoff > beamCutoff {
		c.weight = minActiveCutoff
		c.adaptiveBeam = float32(minActiveCutoff - bestCost + float64(d.cfg.BeamDelta))
		c.rule = ruleMinActive
		return c
	}

	c.weight = beamCutoff
	c.adaptiveBeam = beam
	return c
}

// nthElement reorders a so that a[n] holds the value it would have if a were
// sorted, with nothing greater before it and nothing smaller after it.
func nthElement(a []float64, n int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		pivot := medianOfThree(a, lo, lo+(hi-lo)/2, hi)
		// Three-way partition: [lo,lt) < pivot, [lt,gt] == pivot, (gt,hi] > pivot.
		lt, i, gt := lo, lo, hi
		for i <= gt {
			switch {
			case a[i] < pivot:
				a[lt], a[i] = a[i], a[lt]
				lt++
				i++
			case a[i] > pivot:
				a[i], a[gt] = a[gt], a[i]
				gt--
			default:
				i++
			}
		}
		switch {
		case n < lt:
			hi = lt - 1
		case n > gt:
			lo = gt + 1
		default:
			return
		}
	}
}

func medianOfThree(a []float64, i, j, k int) float64 {
	x, y, z := a[i], a[j], a[k]
	if x > y {
		x, y = y, x
	}
	if y > z {
		y = z
	}
	if x > y {
		return x
	}
	return y
}
