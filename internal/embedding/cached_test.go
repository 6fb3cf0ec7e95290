package embedding

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a test double that counts calls.
type mockProvider struct {
	embedCalls     atomic.Int64
	dimensions     int
	returnedVector []float32
	err            error
}

func newMockProvider(dims int) *mockProvider {
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return &mockProvider{dimensions: dims, returnedVector: vec}
}

func (m *mockProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.returnedVector, nil
}

func (m *mockProvider) Dimensions() int { return m.dimensions }

func TestCachedProvider_ImplementsProviderInterface(t *testing.T) {
	var _ Provider = NewCachedProvider(newMockProvider(768), 100)
}

func TestCachedProvider_CacheHit_SkipsInner(t *testing.T) {
	// Given: a cached provider wrapping a counting mock
	inner := newMockProvider(768)
	cached := NewCachedProvider(inner, 100)
	ctx := context.Background()

	// When: the same text is embedded twice
	first, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)
	second, err := cached.Embed(ctx, "hello world")
	require.NoError(t, err)

	// Then: the inner provider is called only once
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), inner.embedCalls.Load())
}

func TestCachedProvider_DifferentText_CallsInnerAgain(t *testing.T) {
	inner := newMockProvider(768)
	cached := NewCachedProvider(inner, 100)
	ctx := context.Background()

	_, err := cached.Embed(ctx, "hello")
	require.NoError(t, err)
	_, err = cached.Embed(ctx, "world")
	require.NoError(t, err)

	assert.Equal(t, int64(2), inner.embedCalls.Load())
}

func TestCachedProvider_NonPositiveSize_UsesDefault(t *testing.T) {
	cached := NewCachedProvider(newMockProvider(8), 0)
	assert.NotNil(t, cached.cache)
}

func TestCachedProvider_Dimensions_PassesThrough(t *testing.T) {
	cached := NewCachedProvider(newMockProvider(384), 10)
	assert.Equal(t, 384, cached.Dimensions())
}

func TestCachedProvider_Inner_ReturnsWrapped(t *testing.T) {
	inner := newMockProvider(8)
	cached := NewCachedProvider(inner, 10)
	assert.Same(t, inner, cached.Inner())
}
