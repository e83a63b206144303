package language

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBigram(t *testing.T) {
	b := NewBuilder(2)
	b.AddSentence([]string{"東京", "タワー"})
	b.AddSentence([]string{"東京", "タワー", "に", "行く"})
	b.AddSentence([]string{"東京", "駅"})
	b.AddSentence(nil)
	assert.Equal(t, 3, b.NumSentences())

	var buf bytes.Buffer
	require.NoError(t, b.WriteARPA(&buf))
	arpa := buf.String()

	for _, section := range []string{`\data\`, `\1-grams:`, `\2-grams:`, `\end\`} {
		assert.Contains(t, arpa, section)
	}
	assert.NotContains(t, arpa, `\3-grams:`, "bigram model")

	model, err := LoadARPA(strings.NewReader(arpa))
	require.NoError(t, err)
	assert.Equal(t, 2, model.Order)
	assert.Contains(t, model.Vocab(), "東京")

	score := model.SentenceLogProb([]string{"東京", "タワー"})
	assert.False(t, math.IsNaN(score) || math.IsInf(score, 0), "score %f not finite", score)
}

func TestBuilderTrigram(t *testing.T) {
	b := NewBuilder(3)
	b.AddSentence([]string{"今日", "は", "いい", "天気", "です"})
	b.AddSentence([]string{"今日", "は", "暑い", "です"})
	b.AddSentence([]string{"明日", "は", "いい", "天気", "です"})

	model, err := b.Model()
	require.NoError(t, err)
	assert.Equal(t, 3, model.Order)
	assert.NotEmpty(t, model.Trigrams)

	seen := model.SentenceLogProb([]string{"今日", "は", "いい", "天気", "です"})
	unseen := model.SentenceLogProb([]string{"今日", "は", "寒い", "天気", "です"})
	assert.Greater(t, seen, unseen)
}

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder(2)
	n, err := b.AddText(strings.NewReader("あ い\n\n  あ い う \nい う\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	model, err := b.Model()
	require.NoError(t, err)
	for w, e := range model.Unigrams {
		assert.Less(t, e.LogProb, 0.0, "unigram %q", w)
		assert.False(t, math.IsInf(e.LogProb, 0) || math.IsNaN(e.LogProb), "unigram %q", w)
	}
	for key, e := range model.Bigrams {
		assert.Less(t, e.LogProb, 0.0, "bigram %v", key)
	}
}

func TestNewBuilder_ClampsOrder(t *testing.T) {
	assert.Equal(t, 2, NewBuilder(1).Order())
	assert.Equal(t, 3, NewBuilder(5).Order())
}
