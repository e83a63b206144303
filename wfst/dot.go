package wfst

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDot renders the automaton as a graphviz digraph. Final states are
// drawn as double circles and the start state in bold.
func (f *Wfst) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "digraph {\n"+
		"rankdir = LR;\n"+
		"label = \"WFST\";\n"+
		"center = 1;\n"+
		"ranksep = \"0.4\";\n"+
		"nodesep = \"0.25\";\n")

	for i := range f.states {
		s := &f.states[i]
		shape, style := "circle", "solid"
		if s.IsFinal {
			shape = "doublecircle"
		}
		if StateID(i) == f.start {
			style = "bold"
		}
		fmt.Fprintf(bw, "%d [label = \"%d\", shape = %s, style = %s, fontsize = 14]\n", i, i, shape, style)
		for _, a := range f.Arcs(StateID(i)) {
			fmt.Fprintf(bw, "\t%d -> %d [label=\"%s:%s:%g\", fontsize = 14];\n",
				i, a.Dst, labelString(f.itable, a.ILabel), labelString(f.otable, a.OLabel), a.Weight)
		}
	}
	fmt.Fprint(bw, "}\n")
	return bw.Flush()
}

func labelString(t *SymbolTable, l Label) string {
	if t != nil {
		if s, ok := t.Symbol(l); ok {
			q := strconv.Quote(s) // escape quotes inside the dot label
			return q[1 : len(q)-1]
		}
	}
	return strconv.FormatUint(uint64(l), 10)
}
