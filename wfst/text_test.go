package wfst

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainText = `0 1 1 5 0.5
0 2 2 0 1.5
1 2 0 0 0.25
2 3 0 6 0.25

3
`

func TestReadOpenFst(t *testing.T) {
	f, err := ReadOpenFst(strings.NewReader(chainText), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, f.NumStates())
	assert.Equal(t, 4, f.NumArcs())

	want := buildChain(t)
	assert.Equal(t, want.arcs, f.arcs)
	for i := range want.states {
		assert.Equal(t, want.states[i].NumArcs, f.states[i].NumArcs, "state %d", i)
		assert.Equal(t, want.states[i].IsFinal, f.states[i].IsFinal, "state %d", i)
		if want.states[i].NumArcs > 0 {
			assert.Equal(t, want.states[i].ArcBase, f.states[i].ArcBase, "state %d", i)
		}
	}
}

func TestReadOpenFst_DefaultsAndFinalWeight(t *testing.T) {
	f, err := ReadOpenFst(strings.NewReader("0 1 3 4\n1 2.5\n"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Weight(0), f.Arc(0).Weight)
	w, final := f.Final(1)
	assert.True(t, final)
	assert.Equal(t, Weight(2.5), w)
	_, final = f.Final(0)
	assert.False(t, final)
}

func TestReadOpenFst_DestinationOnlyState(t *testing.T) {
	// State 2 never appears as a source or final line.
	f, err := ReadOpenFst(strings.NewReader("0 2 1 1\n"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumStates())
}

func TestReadOpenFst_OutOfOrder(t *testing.T) {
	_, err := ReadOpenFst(strings.NewReader("1 0 1 1\n0 1 1 1\n"), nil, nil)
	require.Error(t, err)
	var werr *Error
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, KindOutOfOrder, werr.Kind)
	assert.Equal(t, PhaseImport, werr.Phase)
	assert.Equal(t, 2, werr.Line)
}

func TestReadOpenFst_Syntax(t *testing.T) {
	for name, text := range map[string]string{
		"three fields": "0 1 2\n",
		"bad weight":   "0 1 2 3 heavy\n",
		"bad state":    "x 1 2 3\n",
		"bad label":    "0 1 a 3\n",
	} {
		_, err := ReadOpenFst(strings.NewReader(text), nil, nil)
		assert.True(t, errors.Is(err, &Error{Kind: KindSyntax}), "%s: got %v", name, err)
	}
}

func TestReadOpenFst_Symbols(t *testing.T) {
	isyms := "<eps> 0\na 1\nb 2\n"
	osyms := "<eps> 0\nhello 1\n"
	f, err := ReadOpenFst(strings.NewReader("0 1 b hello 1\n1\n"),
		strings.NewReader(isyms), strings.NewReader(osyms))
	require.NoError(t, err)
	assert.Equal(t, Arc{ILabel: 2, OLabel: 1, Weight: 1, Dst: 1}, f.Arc(0))
	require.NotNil(t, f.InputTable())
	assert.Equal(t, 3, f.InputTable().Size())

	_, err = ReadOpenFst(strings.NewReader("0 1 c hello\n"),
		strings.NewReader(isyms), strings.NewReader(osyms))
	assert.True(t, errors.Is(err, &Error{Kind: KindUnknownSymbol}), "got %v", err)
}

func TestReadSymbolTable(t *testing.T) {
	tab, err := ReadSymbolTable(strings.NewReader("<eps> 0\n# comment line here\nfoo 1\nbar 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, tab.Size())
	id, ok := tab.Find("bar")
	require.True(t, ok)
	assert.Equal(t, Label(2), id)
	s, ok := tab.Symbol(1)
	require.True(t, ok)
	assert.Equal(t, "foo", s)
	_, ok = tab.Symbol(9)
	assert.False(t, ok)

	_, err = ReadSymbolTable(strings.NewReader("<eps> 0\nfoo 2\n"))
	assert.True(t, errors.Is(err, &Error{Kind: KindOutOfOrder}))
}
