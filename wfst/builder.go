package wfst

// Builder assembles a Wfst. Arcs must be added grouped by source state in
// non-decreasing order, the same contract the text importer enforces.
type Builder struct {
	start   StateID
	states  []State
	arcs    []Arc
	lastSrc StateID
	itable  *SymbolTable
	otable  *SymbolTable
}

// NewBuilder returns an empty builder whose start state will be 0.
func NewBuilder() *Builder {
	return &Builder{}
}

func newSizedBuilder(numStates, numArcs int) *Builder {
	return &Builder{
		states: make([]State, numStates),
		arcs:   make([]Arc, 0, numArcs),
	}
}

// AddState adds a non-final state and returns its id.
func (b *Builder) AddState() StateID {
	b.states = append(b.states, State{ArcBase: ArcID(len(b.arcs))})
	return StateID(len(b.states) - 1)
}

// NumStates returns the number of states added so far.
func (b *Builder) NumStates() int { return len(b.states) }

// SetStart sets the start state.
func (b *Builder) SetStart(s StateID) { b.start = s }

// SetFinal marks s final with weight w.
func (b *Builder) SetFinal(s StateID, w Weight) error {
	if int(s) >= len(b.states) {
		return newError(PhaseBuild, KindInconsistent).Detail("final state %d out of range", s).Build()
	}
	b.states[s].Final = w
	b.states[s].IsFinal = true
	return nil
}

// AddArc appends an arc leaving src.
func (b *Builder) AddArc(src StateID, arc Arc) error {
	if int(src) >= len(b.states) {
		return newError(PhaseBuild, KindInconsistent).Detail("source state %d out of range", src).Build()
	}
	if len(b.arcs) > 0 && src < b.lastSrc {
		return newError(PhaseBuild, KindOutOfOrder).
			Detail("arc from state %d after arcs from state %d", src, b.lastSrc).Build()
	}
	s := &b.states[src]
	if s.NumArcs == 0 {
		s.ArcBase = ArcID(len(b.arcs))
	}
	b.arcs = append(b.arcs, arc)
	s.NumArcs++
	b.lastSrc = src
	return nil
}

// SetInputTable attaches an input symbol table.
func (b *Builder) SetInputTable(t *SymbolTable) { b.itable = t }

// SetOutputTable attaches an output symbol table.
func (b *Builder) SetOutputTable(t *SymbolTable) { b.otable = t }

// Build validates and returns the automaton. The builder must not be used
// afterwards.
func (b *Builder) Build() (*Wfst, error) {
	f := &Wfst{
		start:  b.start,
		states: b.states,
		arcs:   b.arcs,
		itable: b.itable,
		otable: b.otable,
	}
	if err := f.validate(PhaseBuild); err != nil {
		return nil, err
	}
	return f, nil
}
