package wfst

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// SymbolTable maps label ids to strings. Ids are dense, starting at 0.
type SymbolTable struct {
	symbols []string
	index   map[string]Label
}

// NewSymbolTable creates a table holding symbols in id order.
func NewSymbolTable(symbols ...string) *SymbolTable {
	t := &SymbolTable{index: make(map[string]Label, len(symbols))}
	for _, s := range symbols {
		t.Add(s)
	}
	return t
}

// Add appends symbol and returns its id. An existing symbol keeps its id.
func (t *SymbolTable) Add(symbol string) Label {
	if id, ok := t.index[symbol]; ok {
		return id
	}
	id := Label(len(t.symbols))
	t.symbols = append(t.symbols, symbol)
	t.index[symbol] = id
	return id
}

// Symbol returns the string for id.
func (t *SymbolTable) Symbol(id Label) (string, bool) {
	if int(id) >= len(t.symbols) {
		return "", false
	}
	return t.symbols[id], true
}

// Find returns the id of symbol.
func (t *SymbolTable) Find(symbol string) (Label, bool) {
	id, ok := t.index[symbol]
	return id, ok
}

// Size returns the number of symbols.
func (t *SymbolTable) Size() int { return len(t.symbols) }

// Symbols returns the symbols in id order. The slice must not be modified.
func (t *SymbolTable) Symbols() []string { return t.symbols }

// Equal reports whether two tables hold the same symbols in the same order.
func (t *SymbolTable) Equal(o *SymbolTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.symbols) != len(o.symbols) {
		return false
	}
	for i := range t.symbols {
		if t.symbols[i] != o.symbols[i] {
			return false
		}
	}
	return true
}

// ReadSymbolTable reads an OpenFst text symbol table: one "symbol id" pair
// per line, ids counting up from 0. Lines with another field count are
// skipped.
func ReadSymbolTable(r io.Reader) (*SymbolTable, error) {
	t := NewSymbolTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		id, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, newError(PhaseImport, KindSyntax).Line(line).Cause(err).
				Detail("symbol id %q", fields[1]).Build()
		}
		if int(id) != len(t.symbols) {
			return nil, newError(PhaseImport, KindOutOfOrder).Line(line).
				Detail("symbol %q has id %d, expected %d", fields[0], id, len(t.symbols)).Build()
		}
		t.symbols = append(t.symbols, fields[0])
		t.index[fields[0]] = Label(id)
	}
	if err := scanner.Err(); err != nil {
		return nil, newError(PhaseImport, KindIO).Cause(err).Build()
	}
	return t, nil
}
