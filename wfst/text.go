package wfst

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
)

// ReadOpenFst imports an automaton in OpenFst text format:
//
//	src dst ilabel olabel [weight]    an arc
//	state [weight]                    a final state
//
// A missing weight is 0. Arcs must be grouped by non-decreasing source state;
// anything else is reported as a KindOutOfOrder error. The start state is 0.
// isyms and osyms are optional symbol tables in OpenFst text format; when
// given, labels may be written as symbols.
func ReadOpenFst(fst io.Reader, isyms, osyms io.Reader) (*Wfst, error) {
	var itable, otable *SymbolTable
	var err error
	if isyms != nil {
		if itable, err = ReadSymbolTable(isyms); err != nil {
			return nil, err
		}
	}
	if osyms != nil {
		if otable, err = ReadSymbolTable(osyms); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(fst)
	if err != nil {
		return nil, newError(PhaseImport, KindIO).Cause(err).Build()
	}

	// First sweep: size the arrays.
	numArcs, maxState, seen := 0, StateID(0), false
	err = eachLine(data, func(line int, fields []string) error {
		switch len(fields) {
		case 1, 2:
		case 4, 5:
			numArcs++
			dst, err := parseState(line, fields[1])
			if err != nil {
				return err
			}
			maxState = max(maxState, dst)
		default:
			return newError(PhaseImport, KindSyntax).Line(line).Detail("%d fields", len(fields)).Build()
		}
		src, err := parseState(line, fields[0])
		if err != nil {
			return err
		}
		maxState = max(maxState, src)
		seen = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	numStates := 0
	if seen {
		numStates = int(maxState) + 1
	}
	b := newSizedBuilder(numStates, numArcs)
	b.SetInputTable(itable)
	b.SetOutputTable(otable)

	// Second sweep: fill states and arcs.
	err = eachLine(data, func(line int, fields []string) error {
		if len(fields) <= 2 {
			s, _ := parseState(line, fields[0])
			w := Weight(0)
			if len(fields) == 2 {
				if w, err = parseWeight(line, fields[1]); err != nil {
					return err
				}
			}
			return b.SetFinal(s, w)
		}

		src, _ := parseState(line, fields[0])
		dst, _ := parseState(line, fields[1])
		arc := Arc{Dst: dst}
		if arc.ILabel, err = parseLabel(line, fields[2], itable); err != nil {
			return err
		}
		if arc.OLabel, err = parseLabel(line, fields[3], otable); err != nil {
			return err
		}
		if len(fields) == 5 {
			if arc.Weight, err = parseWeight(line, fields[4]); err != nil {
				return err
			}
		}
		if err := b.AddArc(src, arc); err != nil {
			e := err.(*Error)
			e.Phase = PhaseImport
			e.Line = line
			return e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	f, err := b.Build()
	if err != nil {
		return nil, err
	}
	return f, nil
}

func eachLine(data []byte, fn func(line int, fields []string) error) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if err := fn(line, fields); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return newError(PhaseImport, KindIO).Line(line).Cause(err).Build()
	}
	return nil
}

func parseState(line int, s string) (StateID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || StateID(v) == NoStateID {
		return 0, newError(PhaseImport, KindSyntax).Line(line).Detail("state id %q", s).Build()
	}
	return StateID(v), nil
}

func parseLabel(line int, s string, table *SymbolTable) (Label, error) {
	if table != nil {
		if id, ok := table.Find(s); ok {
			return id, nil
		}
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		if table != nil {
			return 0, newError(PhaseImport, KindUnknownSymbol).Line(line).Detail("symbol %q", s).Build()
		}
		return 0, newError(PhaseImport, KindSyntax).Line(line).Detail("label %q", s).Build()
	}
	return Label(v), nil
}

func parseWeight(line int, s string) (Weight, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, newError(PhaseImport, KindSyntax).Line(line).Detail("weight %q", s).Build()
	}
	return Weight(v), nil
}
