package decoder

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/ieee0824/wfstdec/internal/hashlist"
	"github.com/ieee0824/wfstdec/internal/mempool"
	"github.com/ieee0824/wfstdec/wfst"
)

// PathArc is one arc of the best path with its cost split into the graph part
// (graph and LM weight) and the acoustic part.
type PathArc struct {
	ILabel       wfst.Label
	OLabel       wfst.Label
	Dst          wfst.StateID
	GraphCost    float32
	AcousticCost float32
}

// Path is a linear traceback of the best hypothesis.
type Path struct {
	Arcs         []PathArc
	Cost         float64     // total cost, including FinalWeight
	FinalWeight  wfst.Weight // final weight of the last state, zero when not final
	ReachedFinal bool
}

// OutputLabels returns the non-epsilon output labels in order.
func (p *Path) OutputLabels() []wfst.Label {
	var out []wfst.Label
	for _, a := range p.Arcs {
		if a.OLabel != wfst.Epsilon {
			out = append(out, a.OLabel)
		}
	}
	return out
}

// Words returns one Word per non-epsilon output label. Frame is the index of
// the last frame consumed when the label was emitted, -1 before the first.
// table may be nil, leaving Text empty.
func (p *Path) Words(table *wfst.SymbolTable) []Word {
	var words []Word
	frame := -1
	for _, a := range p.Arcs {
		if a.ILabel != wfst.Epsilon {
			frame++
		}
		if a.OLabel == wfst.Epsilon {
			continue
		}
		w := Word{Label: a.OLabel, Frame: frame}
		if table != nil {
			w.Text, _ = table.Symbol(a.OLabel)
		}
		words = append(words, w)
	}
	return words
}

// ReachedFinal reports whether any active token sits on a final graph state
// with finite cost.
func (d *Decoder) ReachedFinal() bool {
	for e := d.toks.Entries(); e != hashlist.Nil; e = d.toks.Next(e) {
		state, _ := splitPair(d.toks.Key(e))
		if _, final := d.fst.Final(state); final && !math.IsInf(d.cost(d.toks.Val(e)), 1) {
			return true
		}
	}
	return false
}

// BestPath traces back the cheapest active token. When some token reached a
// final state only final tokens compete and their final weights count.
// Otherwise every token competes on its cost alone. Ties keep the token met
// first in index order.
func (d *Decoder) BestPath() (*Path, error) {
	if d.numFramesDecoded < 0 {
		return nil, ErrNotInitialized
	}
	reached := d.ReachedFinal()
	best := hashlist.Nil
	bestCost := math.Inf(1)
	var bestFinal wfst.Weight
	for e := d.toks.Entries(); e != hashlist.Nil; e = d.toks.Next(e) {
		cost := d.cost(d.toks.Val(e))
		var fw wfst.Weight
		if reached {
			state, _ := splitPair(d.toks.Key(e))
			w, final := d.fst.Final(state)
			if !final {
				continue
			}
			fw = w
			cost += float64(w)
		}
		if cost < bestCost {
			best, bestCost, bestFinal = e, cost, fw
		}
	}
	if best == hashlist.Nil {
		tracebackNoPath.Inc()
		d.log.Debug("no path", zap.Int("frames", d.numFramesDecoded), zap.Int("active", d.toks.Len()))
		return nil, ErrNoPath
	}
	tracebackOK.Inc()

	p := &Path{Cost: bestCost, FinalWeight: bestFinal, ReachedFinal: reached}
	for h := d.toks.Val(best); ; {
		t := d.tokens.Get(h)
		if t.prev == mempool.Nil {
			// The root token's arc only points at the start state.
			break
		}
		tot := float32(t.cost - d.cost(t.prev))
		p.Arcs = append(p.Arcs, PathArc{
			ILabel:       t.arc.ILabel,
			OLabel:       t.arc.OLabel,
			Dst:          t.arc.Dst,
			GraphCost:    t.arc.Weight,
			AcousticCost: tot - t.arc.Weight,
		})
		h = t.prev
	}
	slices.Reverse(p.Arcs)
	return p, nil
}

// BestOutput returns the output labels of BestPath.
func (d *Decoder) BestOutput() ([]wfst.Label, error) {
	p, err := d.BestPath()
	if err != nil {
		return nil, err
	}
	return p.OutputLabels(), nil
}

// Result builds a Result from BestPath using the graph's output symbols.
func (d *Decoder) Result() (*Result, error) {
	p, err := d.BestPath()
	if err != nil {
		return nil, err
	}
	return newResult(p, d.fst.OutputTable(), d.numFramesDecoded), nil
}
