package vectormath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity_IdenticalVectors(t *testing.T) {
	// Given: two identical vectors
	a := []float32{1, 2, 3}

	// When/Then: similarity is 1
	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	// Given: orthogonal unit vectors
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	// When/Then: similarity is 0
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	// Given: a zero vector and a non-zero vector
	zero := []float32{0, 0, 0}
	nonZero := []float32{1, 2, 3}

	// Then: zero-vs-nonzero similarity is 0 (distance 1)
	assert.Equal(t, 0.0, CosineSimilarity(zero, nonZero))
	assert.Equal(t, 1.0, CosineDistance(zero, nonZero))

	// And: zero-vs-zero is maximally similar (distance 0)
	assert.Equal(t, 1.0, CosineSimilarity(zero, zero))
	assert.Equal(t, 0.0, CosineDistance(zero, zero))
}

func TestNorm(t *testing.T) {
	v := []float32{3, 4}
	assert.InDelta(t, 5.0, Norm(v), 1e-9)
}

func TestMean(t *testing.T) {
	// Given: three vectors
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{2, 2},
	}

	// When: computing the mean
	mean := Mean(vectors)

	// Then: element-wise average
	assert.InDelta(t, 1.0, float64(mean[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(mean[1]), 1e-6)
}

func TestMean_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { Mean(nil) })
}

func TestDot_PanicsOnDimensionMismatch(t *testing.T) {
	assert.Panics(t, func() { Dot([]float32{1}, []float32{1, 2}) })
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	n := Normalize(v)
	require.Len(t, n, 2)
	assert.InDelta(t, 1.0, Norm(n), 1e-6)

	// Zero vector normalizes to itself
	z := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, z)
}

func TestCosineSimilarity_KnownAngle(t *testing.T) {
	// 45 degree angle vectors
	a := []float32{1, 0}
	b := []float32{1, 1}
	got := CosineSimilarity(a, b)
	want := 1 / math.Sqrt2
	assert.InDelta(t, want, got, 1e-6)
}
