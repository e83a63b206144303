package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromLog10(t *testing.T) {
	assert.InDelta(t, math.Log(100), FromLog10(2), 1e-12)
	assert.Equal(t, 0.0, FromLog10(0))
}

func TestToCost(t *testing.T) {
	assert.Equal(t, float32(3), ToCost(-1.5, 2))
	assert.Equal(t, float32(1e30), ToCost(LogZero, 1))
}
