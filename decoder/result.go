package decoder

import (
	"strconv"
	"strings"

	"github.com/ieee0824/wfstdec/wfst"
)

// Result holds the recognition output.
type Result struct {
	Text         string       `json:"text"`   // recognized text
	Words        []Word       `json:"words"`  // word-level details
	Labels       []wfst.Label `json:"labels"` // output labels of the best path
	Cost         float64      `json:"cost"`   // total cost, negated log probability
	ReachedFinal bool         `json:"reached_final"`
	NumFrames    int          `json:"num_frames"`
}

// Word holds an output label and the frame it was emitted on.
type Word struct {
	Text  string     `json:"text"`
	Label wfst.Label `json:"label"`
	Frame int        `json:"frame"`
}

func newResult(p *Path, table *wfst.SymbolTable, numFrames int) *Result {
	r := &Result{
		Words:        p.Words(table),
		Labels:       p.OutputLabels(),
		Cost:         p.Cost,
		ReachedFinal: p.ReachedFinal,
		NumFrames:    numFrames,
	}
	texts := make([]string, len(r.Words))
	for i, w := range r.Words {
		if w.Text != "" {
			texts[i] = w.Text
		} else {
			texts[i] = strconv.FormatUint(uint64(w.Label), 10)
		}
	}
	r.Text = strings.Join(texts, " ")
	return r
}
