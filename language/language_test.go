package language

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/wfstdec/internal/mathutil"
)

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	東京
-0.7	タワー	-0.3

\2-grams:
-0.3	<s>	東京
-0.4	東京	タワー
-0.2	タワー	</s>

\end\
`

func loadTestModel(t *testing.T) *NGramModel {
	t.Helper()
	model, err := LoadARPA(strings.NewReader(testARPA))
	require.NoError(t, err)
	return model
}

func TestLoadARPA(t *testing.T) {
	model := loadTestModel(t)
	assert.Equal(t, 2, model.Order)
	assert.Len(t, model.Unigrams, 4)
	assert.Len(t, model.Bigrams, 3)

	// log10 prob -0.5 becomes -0.5 * ln(10)
	e, ok := model.Unigrams["東京"]
	require.True(t, ok, "missing unigram for 東京")
	assert.InDelta(t, -0.5*math.Ln10, e.LogProb, 1e-10)
}

func TestLoadARPA_Errors(t *testing.T) {
	tests := map[string]string{
		"no data":        "hello\n",
		"count mismatch": "\\data\\\nngram 1=2\n\n\\1-grams:\n-1.0\ta\n\\end\\\n",
		"no end":         "\\data\\\nngram 1=1\n\n\\1-grams:\n-1.0\ta\n",
		"bad prob":       "\\data\\\nngram 1=1\n\n\\1-grams:\nx\ta\n\\end\\\n",
		"bad count":      "\\data\\\nngram one=1\n\\end\\\n",
		"orphan entry":   "\\data\\\nngram 1=1\n-1.0\ta\n\\end\\\n",
	}
	for name, text := range tests {
		_, err := LoadARPA(strings.NewReader(text))
		assert.True(t, errors.Is(err, ErrARPA), "%s: got %v", name, err)
	}
}

func TestLoadARPA_SkipsHigherOrders(t *testing.T) {
	text := "\\data\\\nngram 1=2\nngram 4=1\n\n\\1-grams:\n-1\ta\n-1\tb\n\n\\4-grams:\n-1\ta b a b\n\n\\end\\\n"
	model, err := LoadARPA(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, MaxOrder, model.Order)
	assert.Len(t, model.Unigrams, 2)
}

func TestLogProb_Bigram(t *testing.T) {
	model := loadTestModel(t)
	// P(東京 | <s>) should use the bigram
	assert.InDelta(t, -0.3*math.Ln10, model.LogProb([]string{"<s>"}, "東京"), 1e-10)
}

func TestLogProb_Backoff(t *testing.T) {
	model := loadTestModel(t)
	// No bigram (タワー, 東京): backoff(タワー) + P_unigram(東京)
	want := -0.3*math.Ln10 + -0.5*math.Ln10
	assert.InDelta(t, want, model.LogProb([]string{"タワー"}, "東京"), 1e-10)
}

func TestLogProb_OOV(t *testing.T) {
	model := loadTestModel(t)
	assert.Equal(t, float64(mathutil.LogZero), model.LogProb(nil, "大阪"))
	model.OOVLogProb = -5 * math.Ln10
	assert.Equal(t, -5*math.Ln10, model.LogProb(nil, "大阪"))
	assert.False(t, model.Contains("大阪"))
	assert.True(t, model.Contains("東京"))
}

func TestSentenceLogProb(t *testing.T) {
	model := loadTestModel(t)
	// P(<s>, 東京) + P(東京, タワー) + P(タワー, </s>)
	want := -0.3*math.Ln10 + -0.4*math.Ln10 + -0.2*math.Ln10
	assert.InDelta(t, want, model.SentenceLogProb([]string{"東京", "タワー"}), 1e-10)
}

func TestVocab(t *testing.T) {
	assert.Len(t, loadTestModel(t).Vocab(), 4)
}
