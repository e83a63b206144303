package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMat(t *testing.T) {
	m := NewMat(3, 4)
	assert.Len(t, m, 3)
	for _, row := range m {
		assert.Equal(t, []float64{0, 0, 0, 0}, row)
	}
	// Rows must not grow into each other.
	m[0] = append(m[0], 9)
	assert.Equal(t, 0.0, m[1][0])
}
