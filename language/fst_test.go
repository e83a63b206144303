package language

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/wfstdec/wfst"
)

func testWords() *wfst.SymbolTable {
	return wfst.NewSymbolTable(wfst.EpsilonSymbol, "東京", "タワー", "</s>", "大阪")
}

func TestFst_Bigram(t *testing.T) {
	f, err := NewFst(loadTestModel(t), testWords())
	require.NoError(t, err)
	assert.Equal(t, []string{SentenceStart}, f.History(f.Start()))

	a, ok := f.GetArc(f.Start(), 1)
	require.True(t, ok)
	assert.Equal(t, wfst.Label(1), a.ILabel)
	assert.Equal(t, wfst.Label(1), a.OLabel)
	assert.InDelta(t, 0.3*math.Ln10, a.Weight, 1e-5)
	assert.Equal(t, []string{"東京"}, f.History(a.Dst))

	b, ok := f.GetArc(a.Dst, 2)
	require.True(t, ok)
	assert.InDelta(t, 0.4*math.Ln10, b.Weight, 1e-5)
	assert.Equal(t, []string{"タワー"}, f.History(b.Dst))

	// Same history, same state.
	again, _ := f.GetArc(f.Start(), 1)
	assert.Equal(t, a, again)

	assert.InDelta(t, 0.2*math.Ln10, f.FinalWeight(b.Dst), 1e-5)
}

func TestFst_Mismatch(t *testing.T) {
	f, err := NewFst(loadTestModel(t), testWords())
	require.NoError(t, err)

	_, ok := f.GetArc(f.Start(), 4)
	assert.False(t, ok, "大阪 is not in the model")
	_, ok = f.GetArc(f.Start(), 99)
	assert.False(t, ok, "label beyond the word table")
	_, ok = f.GetArc(f.Start(), wfst.Epsilon)
	assert.False(t, ok)
}

func TestFst_Scale(t *testing.T) {
	f, err := NewFst(loadTestModel(t), testWords(), WithScale(2))
	require.NoError(t, err)
	a, ok := f.GetArc(f.Start(), 1)
	require.True(t, ok)
	assert.InDelta(t, 0.6*math.Ln10, a.Weight, 1e-5)
}

func TestFst_Trigram(t *testing.T) {
	b := NewBuilder(3)
	b.AddSentence([]string{"東京", "タワー"})
	b.AddSentence([]string{"大阪", "タワー"})
	model, err := b.Model()
	require.NoError(t, err)

	f, err := NewFst(model, testWords())
	require.NoError(t, err)
	s := f.Start()
	assert.Equal(t, []string{SentenceStart}, f.History(s))
	a, ok := f.GetArc(s, 1)
	require.True(t, ok)
	assert.Equal(t, []string{SentenceStart, "東京"}, f.History(a.Dst))
	a, ok = f.GetArc(a.Dst, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"東京", "タワー"}, f.History(a.Dst))
	assert.InDelta(t, -model.LogProb([]string{SentenceStart, "東京"}, "タワー"), a.Weight, 1e-5)
}

func TestFst_StateSpaceLimit(t *testing.T) {
	words := wfst.NewSymbolTable(wfst.EpsilonSymbol)
	for i := 0; i < 70000; i++ {
		words.Add(string(rune(0x4e00+i%20000)) + string(rune('a'+i/20000)))
	}
	model := NewNGramModel(3)
	_, err := NewFst(model, words)
	assert.Error(t, err)

	model.Order = 2
	_, err = NewFst(model, words)
	assert.NoError(t, err)
}

func TestFst_ConcurrentLookups(t *testing.T) {
	f, err := NewFst(loadTestModel(t), testWords())
	require.NoError(t, err)
	want, _ := f.GetArc(f.Start(), 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				got, ok := f.GetArc(f.Start(), 1)
				if !ok || got != want {
					t.Errorf("lookup %d: %v %v", j, got, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
}
