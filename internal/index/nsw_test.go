package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNSWIndex_BasisVectors(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{})
	require.NoError(t, nsw.Add(Item{ID: "x", Embedding: []float32{1, 0, 0}}))
	require.NoError(t, nsw.Add(Item{ID: "y", Embedding: []float32{0, 1, 0}}))
	require.NoError(t, nsw.Add(Item{ID: "z", Embedding: []float32{0, 0, 1}}))

	results, err := nsw.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestNSWIndex_InsertThenDelete_EntryPointPromotion(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{M: 4, EfConstruction: 16})
	n := 500
	circle := unitCircleItems(n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n%d", i)
		require.NoError(t, nsw.Add(Item{ID: id, Embedding: circle[i].Embedding}))
	}
	require.Equal(t, n, nsw.Len())

	// Remove 250 deterministic ids, including whatever the current
	// entry point happens to be at some point — exercises promotion.
	for i := 0; i < 250; i++ {
		id := fmt.Sprintf("n%d", (i*37)%n)
		require.NoError(t, nsw.Remove(id))
	}

	assert.Equal(t, n-250, nsw.Len())

	results, err := nsw.Search([]float32{1, 0}, 50)
	require.NoError(t, err)
	assert.Equal(t, minInt(50, n-250), len(results))

	for _, r := range results {
		assert.True(t, nsw.nodeExists(r.ID), "result id %s must still be present in the graph", r.ID)
	}
}

func TestNSWIndex_RemoveEntryPoint_PromotesSurvivor(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{M: 4})
	require.NoError(t, nsw.Add(Item{ID: "a", Embedding: []float32{1, 0}}))
	require.NoError(t, nsw.Add(Item{ID: "b", Embedding: []float32{0, 1}}))
	require.NoError(t, nsw.Add(Item{ID: "c", Embedding: []float32{-1, 0}}))

	firstEntry := nsw.entry
	require.NoError(t, nsw.Remove(firstEntry))

	assert.NotEqual(t, firstEntry, nsw.entry)
	assert.NotEmpty(t, nsw.entry)
}

func TestNSWIndex_RemoveLastNode_EntryBecomesNone(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{})
	require.NoError(t, nsw.Add(Item{ID: "a", Embedding: []float32{1, 0}}))
	require.NoError(t, nsw.Remove("a"))

	assert.Equal(t, "", nsw.entry)
	assert.Equal(t, 0, nsw.Len())

	results, err := nsw.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNSWIndex_DegreeBoundedByMMax(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{M: 4, EfConstruction: 32})
	items := unitCircleItems(200)
	for _, it := range items {
		require.NoError(t, nsw.Add(it))
	}

	for id, node := range nsw.nodes {
		assert.LessOrEqualf(t, len(node.neighbors), nsw.mMax(), "node %s exceeds M_max", id)
	}
}

func TestNSWIndex_Recall_RandomVectors(t *testing.T) {
	items := randomItems(1000, 128, 7)

	nsw := NewNSWIndex(NSWConfig{})
	require.NoError(t, nsw.Rebuild(items))

	exact := NewCosineIndex()
	require.NoError(t, exact.Rebuild(items))

	totalOverlap, totalQueries := 0, 20
	for q := 0; q < totalQueries; q++ {
		query := items[q*13%len(items)].Embedding
		nswResults, err := nsw.Search(query, 10)
		require.NoError(t, err)
		exactResults, err := exact.Search(query, 10)
		require.NoError(t, err)
		totalOverlap += overlapCount(nswResults, exactResults)
	}

	recall := float64(totalOverlap) / float64(totalQueries*10)
	assert.GreaterOrEqual(t, recall, 0.8)
}

func TestNSWIndex_DimensionMismatch(t *testing.T) {
	nsw := NewNSWIndex(NSWConfig{})
	require.NoError(t, nsw.Add(Item{ID: "a", Embedding: []float32{1, 0, 0}}))

	err := nsw.Add(Item{ID: "b", Embedding: []float32{1, 0}})
	assert.Error(t, err)
}

func (idx *NSWIndex) nodeExists(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.nodes[id]
	return ok
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
