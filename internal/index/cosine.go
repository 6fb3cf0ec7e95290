package index

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
	"github.com/aaronbannin/vectordb/internal/vectormath"
)

// CosineIndex is the exact ground-truth index: a linear scan over every
// stored vector, scored by cosine similarity. It is always deterministic
// and is what IVF/NSW recall is measured against.
type CosineIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	dim     int
}

// NewCosineIndex returns an empty exact cosine index.
func NewCosineIndex() *CosineIndex {
	return &CosineIndex{vectors: make(map[string][]float32)}
}

// Rebuild replaces all state with items. The first item encountered
// establishes dim for this rebuild; Rebuild never fails on mismatched
// input dimension from a previous generation because it starts clean —
// but a mixed-dimension items slice still fails, matching Add's check.
func (c *CosineIndex) Rebuild(items []Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	vectors := make(map[string][]float32, len(items))
	dim := 0
	for _, it := range items {
		if dim == 0 {
			dim = len(it.Embedding)
		} else if len(it.Embedding) != dim {
			return vdberrors.DimensionMismatch(dim, len(it.Embedding))
		}
		vectors[it.ID] = cloneVector(it.Embedding)
	}
	c.vectors = vectors
	c.dim = dim
	return nil
}

// Add incorporates one item in O(1).
func (c *CosineIndex) Add(item Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dim != 0 && len(item.Embedding) != c.dim {
		return vdberrors.DimensionMismatch(c.dim, len(item.Embedding))
	}
	if c.dim == 0 {
		c.dim = len(item.Embedding)
	}
	c.vectors[item.ID] = cloneVector(item.Embedding)
	return nil
}

// Remove drops id in O(1). Removing an absent id is a no-op.
func (c *CosineIndex) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vectors, id)
	return nil
}

// Len reports the number of indexed vectors.
func (c *CosineIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

// candidate pairs an id with its similarity score, used by the bounded
// min-heap below to keep only the top k during the linear scan.
type candidate struct {
	id    string
	score float64
}

// minHeap is a container/heap of candidates ordered by ascending score
// (worst first), so the root is always the weakest of the current top-k
// and can be evicted in O(log k) when a better candidate arrives. Ties
// broken by descending id so that, combined with the final sort's
// ascending-id tiebreak, equal scores end up ordered by ascending id.
type minHeap []candidate

func (h minHeap) Len() int { return len(h) }
func (h minHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].id > h[j].id
}
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Search scans every entry, computing cosine similarity against query,
// and returns the top-k via a bounded min-heap. O(n*d) time, O(k) extra
// space.
func (c *CosineIndex) Search(query []float32, k int) ([]Scored, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if k <= 0 {
		return nil, vdberrors.InvalidInput("k must be positive")
	}

	h := &minHeap{}
	heap.Init(h)

	for id, vec := range c.vectors {
		score := vectormath.CosineSimilarity(query, vec)
		if h.Len() < k {
			heap.Push(h, candidate{id: id, score: score})
			continue
		}
		if (*h)[0].score < score || ((*h)[0].score == score && (*h)[0].id > id) {
			heap.Pop(h)
			heap.Push(h, candidate{id: id, score: score})
		}
	}

	results := make([]Scored, h.Len())
	for i := len(results) - 1; i >= 0; i-- {
		c := heap.Pop(h).(candidate)
		results[i] = Scored{ID: c.id, Score: c.score}
	}

	// heap pop order is ascending score already placed into results
	// from the back; a final stable sort guarantees the descending
	// score / ascending id tie-break this package requires even when
	// heap pop order and the desired order disagree on ties.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	return results, nil
}

// Ids returns every id currently indexed, in no particular order.
func (c *CosineIndex) Ids() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.vectors))
	for id := range c.vectors {
		ids = append(ids, id)
	}
	return ids
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

var _ Index = (*CosineIndex)(nil)
var _ Ider = (*CosineIndex)(nil)
