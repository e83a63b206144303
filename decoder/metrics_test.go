package decoder

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieee0824/wfstdec/internal/mathutil"
	"github.com/ieee0824/wfstdec/wfst"
)

func TestMetrics(t *testing.T) {
	frames0 := testutil.ToFloat64(framesDecodedTotal)
	ok0 := testutil.ToFloat64(tracebackOK)
	noPath0 := testutil.ToFloat64(tracebackNoPath)
	mismatch0 := testutil.ToFloat64(lmMismatchTotal)
	minActive0 := testutil.ToFloat64(cutoffByMinActive)

	g := buildGraph(t, 1, map[wfst.StateID]wfst.Weight{0: 0}, edge(0, 0, 1, 0, 0))
	d := newDecoder(t, g, nil, DefaultConfig())
	require.NoError(t, d.Decode(NewMatrixDecodable(mathutil.Mat{{0, -1}, {0, -1}, {0, -1}})))
	_, err := d.BestPath()
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(framesDecodedTotal)-frames0)
	assert.Equal(t, 3.0, testutil.ToFloat64(cutoffByMinActive)-minActive0, "one token is below min active")
	assert.Equal(t, 1.0, testutil.ToFloat64(tracebackOK)-ok0)

	// A graph without arcs loses every token on the first frame.
	empty := buildGraph(t, 1, nil)
	d = newDecoder(t, empty, nil, DefaultConfig())
	require.NoError(t, d.Decode(NewMatrixDecodable(mathutil.Mat{{0, -1}})))
	_, err = d.BestPath()
	assert.ErrorIs(t, err, ErrNoPath)
	assert.Equal(t, 1.0, testutil.ToFloat64(tracebackNoPath)-noPath0)

	lm := &mapLM{arcs: map[[2]uint32]wfst.Arc{}}
	d = newDecoder(t, buildGraph(t, 2, nil, edge(0, 1, 1, 5, 0)), lm, DefaultConfig())
	assert.ErrorIs(t, d.Decode(NewMatrixDecodable(mathutil.Mat{{0, 0}})), ErrLMMismatch)
	assert.Equal(t, 1.0, testutil.ToFloat64(lmMismatchTotal)-mismatch0)
}
