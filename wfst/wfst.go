// Package wfst holds the static weighted finite-state transducer searched by
// the decoder.
//
// A Wfst stores its states and arcs in two flat arrays: the arcs leaving state
// i occupy [ArcBase, ArcBase+NumArcs) of the arc array. Once built, a Wfst is
// never mutated and can be shared by any number of decoders without locking.
package wfst

import "math"

// StateID indexes a state.
type StateID uint32

// ArcID indexes an arc.
type ArcID uint32

// Label is an input or output symbol id.
type Label uint32

// Weight is a cost in the tropical semiring (lower is better).
type Weight = float32

const (
	// Epsilon is the label of a transition that consumes or emits nothing.
	Epsilon Label = 0
	// EpsilonSymbol is the conventional symbol of label 0.
	EpsilonSymbol = "<eps>"
	// NoStateID marks a missing state.
	NoStateID StateID = math.MaxUint32
)

// Arc is one transition.
type Arc struct {
	ILabel Label
	OLabel Label
	Weight Weight
	Dst    StateID
}

// State describes one state's arc range and final weight. Finality is an
// explicit flag: a final state with zero cost and a non-final state are
// different things.
type State struct {
	ArcBase ArcID
	NumArcs int32
	Final   Weight
	IsFinal bool
}

// Wfst is an immutable transducer.
type Wfst struct {
	start  StateID
	states []State
	arcs   []Arc
	itable *SymbolTable
	otable *SymbolTable
}

// DeterministicOnDemand is a deterministic automaton whose arcs are computed
// when asked for, such as a language model. GetArc returns the single arc
// leaving s with input label ilabel, if any. Implementations must be safe for
// concurrent use since one model is shared by many decoders.
type DeterministicOnDemand interface {
	Start() StateID
	GetArc(s StateID, ilabel Label) (Arc, bool)
}

// Start returns the start state.
func (f *Wfst) Start() StateID { return f.start }

// NumStates returns the number of states.
func (f *Wfst) NumStates() int { return len(f.states) }

// NumArcs returns the number of arcs.
func (f *Wfst) NumArcs() int { return len(f.arcs) }

// State returns state i. It panics if i is out of range.
func (f *Wfst) State(i StateID) State { return f.states[i] }

// Arc returns arc j. It panics if j is out of range.
func (f *Wfst) Arc(j ArcID) Arc { return f.arcs[j] }

// Arcs returns the arcs leaving state i. The slice aliases the automaton's
// storage and must not be modified.
func (f *Wfst) Arcs(i StateID) []Arc {
	s := &f.states[i]
	return f.arcs[s.ArcBase : int(s.ArcBase)+int(s.NumArcs) : int(s.ArcBase)+int(s.NumArcs)]
}

// Final returns the final weight of state i and whether i is final.
func (f *Wfst) Final(i StateID) (Weight, bool) {
	s := &f.states[i]
	return s.Final, s.IsFinal
}

// InputTable returns the input symbol table, or nil.
func (f *Wfst) InputTable() *SymbolTable { return f.itable }

// OutputTable returns the output symbol table, or nil.
func (f *Wfst) OutputTable() *SymbolTable { return f.otable }

func (f *Wfst) validate(phase Phase) error {
	numStates, numArcs := len(f.states), len(f.arcs)
	if numStates > 0 && int(f.start) >= numStates {
		return newError(phase, KindInconsistent).Detail("start state %d out of range (%d states)", f.start, numStates).Build()
	}
	for i := range f.states {
		s := &f.states[i]
		if s.NumArcs < 0 || int(s.ArcBase)+int(s.NumArcs) > numArcs {
			return newError(phase, KindInconsistent).
				Detail("state %d arc range [%d,+%d) exceeds %d arcs", i, s.ArcBase, s.NumArcs, numArcs).Build()
		}
	}
	for j := range f.arcs {
		if int(f.arcs[j].Dst) >= numStates {
			return newError(phase, KindInconsistent).
				Detail("arc %d destination %d out of range (%d states)", j, f.arcs[j].Dst, numStates).Build()
		}
	}
	return nil
}
