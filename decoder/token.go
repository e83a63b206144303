package decoder

import (
	"github.com/ieee0824/wfstdec/internal/mempool"
	"github.com/ieee0824/wfstdec/wfst"
)

// token is one hypothesis: the arc that produced it, its accumulated cost and
// a counted reference to its predecessor. Many tokens share a predecessor, so
// the chains form a tree rooted at the initial token.
type token struct {
	prev mempool.Handle
	arc  wfst.Arc
	cost float64
	refs int32
}

// newToken allocates a token for arc taken from prev with the given acoustic
// cost. It starts with one reference, owned by the caller.
func (d *Decoder) newToken(prev mempool.Handle, arc wfst.Arc, acCost float32) mempool.Handle {
	h := d.tokens.Alloc()
	t := d.tokens.Get(h)
	t.prev = prev
	t.arc = arc
	t.refs = 1
	if prev != mempool.Nil {
		p := d.tokens.Get(prev)
		p.refs++
		t.cost = p.cost + float64(arc.Weight) + float64(acCost)
	} else {
		t.cost = float64(arc.Weight) + float64(acCost)
	}
	return h
}

// releaseToken drops one reference to h and frees every token whose count
// reaches zero along the chain. Chains grow with utterance length, so this
// walks iteratively.
func (d *Decoder) releaseToken(h mempool.Handle) {
	for h != mempool.Nil {
		t := d.tokens.Get(h)
		t.refs--
		if t.refs > 0 {
			return
		}
		prev := t.prev
		d.tokens.Release(h)
		h = prev
	}
}

func (d *Decoder) cost(h mempool.Handle) float64 { return d.tokens.Get(h).cost }

// pairID packs a graph state and an LM state into one index key.
func pairID(s, lm wfst.StateID) uint64 { return uint64(s) | uint64(lm)<<32 }

func splitPair(p uint64) (s, lm wfst.StateID) {
	return wfst.StateID(p), wfst.StateID(p >> 32)
}
