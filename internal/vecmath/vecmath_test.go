package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	sim, err := Cosine([]float32{1, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = Cosine([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = Cosine([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	// Scale invariance.
	sim, err = Cosine([]float32{2, 2}, []float32{5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineErrors(t *testing.T) {
	_, err := Cosine([]float32{1, 0}, []float32{1})
	assert.Error(t, err)

	_, err = Cosine(nil, nil)
	assert.Error(t, err)

	_, err = Cosine([]float32{0, 0}, []float32{1, 0})
	assert.Error(t, err)
}

func TestL2(t *testing.T) {
	d, err := L2([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	_, err = L2([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}

func TestDot(t *testing.T) {
	d, err := Dot([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, d, 1e-9)

	_, err = Dot([]float32{1}, []float32{1, 2})
	assert.Error(t, err)
}
