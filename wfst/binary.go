package wfst

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// FormatVersion is the binary layout version written by Write.
const FormatVersion uint32 = 1

const (
	maxSymbolBytes = 1 << 20
	readBatch      = 1 << 16
)

// Write serializes the automaton. Markers are ASCII tokens followed by a
// space; every number is little-endian with a fixed width.
func (f *Wfst) Write(w io.Writer) error {
	enc := &encoder{w: bufio.NewWriter(w)}

	enc.token("<Wfst>")
	enc.token("<Version>")
	enc.u32(FormatVersion)
	enc.token("<Start>")
	enc.u32(uint32(f.start))
	enc.token("<NumStates>")
	enc.u64(uint64(len(f.states)))
	enc.token("<NumArcs>")
	enc.u64(uint64(len(f.arcs)))

	enc.token("<States>")
	for i := range f.states {
		s := &f.states[i]
		enc.u32(uint32(s.ArcBase))
		enc.u32(uint32(s.NumArcs))
		enc.u32(math.Float32bits(s.Final))
		enc.boolean(s.IsFinal)
	}

	enc.token("<Arcs>")
	for j := range f.arcs {
		a := &f.arcs[j]
		enc.u32(uint32(a.ILabel))
		enc.u32(uint32(a.OLabel))
		enc.u32(math.Float32bits(a.Weight))
		enc.u32(uint32(a.Dst))
	}

	enc.token("<InputTable>")
	enc.table(f.itable)
	enc.token("<OutputTable>")
	enc.table(f.otable)

	return enc.flush()
}

// Read deserializes an automaton written by Write.
func Read(r io.Reader) (*Wfst, error) {
	dec := &decoder{r: bufio.NewReader(r)}
	f := &Wfst{}

	dec.expect("<Wfst>")
	dec.expect("<Version>")
	if v := dec.u32(); dec.err == nil && v != FormatVersion {
		return nil, newError(PhaseRead, KindUnsupportedVersion).Detail("version %d, want %d", v, FormatVersion).Build()
	}
	dec.expect("<Start>")
	f.start = StateID(dec.u32())
	dec.expect("<NumStates>")
	numStates := dec.count("states")
	dec.expect("<NumArcs>")
	numArcs := dec.count("arcs")
	if dec.err != nil {
		return nil, dec.err
	}

	dec.expect("<States>")
	f.states = make([]State, 0, min(numStates, readBatch))
	for i := 0; i < numStates && dec.err == nil; i++ {
		s := State{
			ArcBase: ArcID(dec.u32()),
			NumArcs: int32(dec.u32()),
			Final:   math.Float32frombits(dec.u32()),
			IsFinal: dec.boolean(),
		}
		f.states = append(f.states, s)
	}

	dec.expect("<Arcs>")
	f.arcs = make([]Arc, 0, min(numArcs, readBatch))
	for j := 0; j < numArcs && dec.err == nil; j++ {
		a := Arc{
			ILabel: Label(dec.u32()),
			OLabel: Label(dec.u32()),
			Weight: math.Float32frombits(dec.u32()),
			Dst:    StateID(dec.u32()),
		}
		f.arcs = append(f.arcs, a)
	}

	dec.expect("<InputTable>")
	f.itable = dec.table()
	dec.expect("<OutputTable>")
	f.otable = dec.table()
	if dec.err != nil {
		return nil, dec.err
	}

	if err := f.validate(PhaseRead); err != nil {
		return nil, err
	}
	return f, nil
}

type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func (e *encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.w.Write(p); err != nil {
		e.err = newError(PhaseWrite, KindIO).Cause(err).Build()
	}
}

func (e *encoder) token(tok string) {
	e.write([]byte(tok))
	e.write([]byte{' '})
}

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[:4], v)
	e.write(e.buf[:4])
}

func (e *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[:8], v)
	e.write(e.buf[:8])
}

func (e *encoder) boolean(v bool) {
	if v {
		e.write([]byte{1})
	} else {
		e.write([]byte{0})
	}
}

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.write([]byte(s))
}

func (e *encoder) table(t *SymbolTable) {
	e.boolean(t != nil)
	if t == nil {
		return
	}
	e.token("<WfstSymbolTable>")
	e.token("<TableSize>")
	e.u64(uint64(t.Size()))
	for _, s := range t.symbols {
		e.str(s)
	}
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		return newError(PhaseWrite, KindIO).Cause(err).Build()
	}
	return nil
}

// decoder keeps the first error; later reads become no-ops returning zero.
type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func (d *decoder) fail(err error) {
	if d.err != nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = newError(PhaseRead, KindTruncated).Cause(err).Build()
		return
	}
	d.err = newError(PhaseRead, KindIO).Cause(err).Build()
}

func (d *decoder) read(p []byte) bool {
	if d.err != nil {
		return false
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		d.fail(err)
		return false
	}
	return true
}

func (d *decoder) expect(tok string) {
	p := make([]byte, len(tok)+1)
	if !d.read(p) {
		return
	}
	if string(p[:len(tok)]) != tok || p[len(tok)] != ' ' {
		d.err = newError(PhaseRead, KindBadMarker).Detail("expected %q, got %q", tok, p).Build()
	}
}

func (d *decoder) u32() uint32 {
	if !d.read(d.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(d.buf[:4])
}

func (d *decoder) u64() uint64 {
	if !d.read(d.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(d.buf[:8])
}

func (d *decoder) boolean() bool {
	if !d.read(d.buf[:1]) {
		return false
	}
	switch d.buf[0] {
	case 0:
		return false
	case 1:
		return true
	}
	d.err = newError(PhaseRead, KindInconsistent).Detail("boolean byte %d", d.buf[0]).Build()
	return false
}

// count reads a u64 element count that must be addressable by a 32-bit id.
func (d *decoder) count(what string) int {
	n := d.u64()
	if d.err == nil && n > math.MaxUint32 {
		d.err = newError(PhaseRead, KindInconsistent).Detail("%d %s exceed 32-bit ids", n, what).Build()
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	n := d.u32()
	if d.err != nil {
		return ""
	}
	if n > maxSymbolBytes {
		d.err = newError(PhaseRead, KindInconsistent).Detail("symbol of %d bytes", n).Build()
		return ""
	}
	p := make([]byte, n)
	if !d.read(p) {
		return ""
	}
	return string(p)
}

func (d *decoder) table() *SymbolTable {
	if !d.boolean() {
		return nil
	}
	d.expect("<WfstSymbolTable>")
	d.expect("<TableSize>")
	size := d.count("symbols")
	t := NewSymbolTable()
	for i := 0; i < size && d.err == nil; i++ {
		s := d.str()
		t.symbols = append(t.symbols, s)
		if _, dup := t.index[s]; !dup {
			t.index[s] = Label(i)
		}
	}
	if d.err != nil {
		return nil
	}
	return t
}
