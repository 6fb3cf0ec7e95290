package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider_Embed_ReturnsCorrectDimensions(t *testing.T) {
	// Given: a static provider
	p := NewStaticProvider()

	// When: I embed some text
	vec, err := p.Embed(context.Background(), "func main() {}")

	// Then: a 256-dimension vector is returned
	require.NoError(t, err)
	assert.Len(t, vec, StaticDimensions)
	assert.Equal(t, StaticDimensions, p.Dimensions())
}

func TestStaticProvider_Embed_VectorIsNormalized(t *testing.T) {
	p := NewStaticProvider()

	vec, err := p.Embed(context.Background(), "func main() {}")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, vectorMagnitude(vec), 0.001)
}

func TestStaticProvider_Embed_IsDeterministic(t *testing.T) {
	p := NewStaticProvider()
	text := "func add(a, b int) int { return a + b }"

	emb1, err1 := p.Embed(context.Background(), text)
	emb2, err2 := p.Embed(context.Background(), text)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, emb1, emb2, "same text should produce identical vectors")
}

func TestStaticProvider_Embed_DeterministicAcrossInstances(t *testing.T) {
	p1 := NewStaticProvider()
	p2 := NewStaticProvider()
	text := "func getUserByID(id string) (*User, error)"

	emb1, _ := p1.Embed(context.Background(), text)
	emb2, _ := p2.Embed(context.Background(), text)

	assert.Equal(t, emb1, emb2)
}

func TestStaticProvider_Embed_EmptyTextReturnsZeroVector(t *testing.T) {
	p := NewStaticProvider()

	vec, err := p.Embed(context.Background(), "   ")
	require.NoError(t, err)

	for _, v := range vec {
		assert.Equal(t, float32(0), v)
	}
}

func TestStaticProvider_Embed_DifferentTextDiffers(t *testing.T) {
	p := NewStaticProvider()

	emb1, err := p.Embed(context.Background(), "func add(a, b int) int")
	require.NoError(t, err)
	emb2, err := p.Embed(context.Background(), "func subtract(a, b int) int")
	require.NoError(t, err)

	assert.NotEqual(t, emb1, emb2)
}

func TestStaticProvider_Embed_CamelAndSnakeCaseTokenizeSimilarly(t *testing.T) {
	// Given: two equivalent identifiers spelled in different case styles
	p := NewStaticProvider()

	emb1, err := p.Embed(context.Background(), "getUserById")
	require.NoError(t, err)
	emb2, err := p.Embed(context.Background(), "get_user_by_id")
	require.NoError(t, err)

	// Then: the shared tokens pull the vectors close together
	sim := cosineSim(emb1, emb2)
	assert.Greater(t, sim, 0.5)
}

func vectorMagnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosineSim(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
