package index

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
	"github.com/aaronbannin/vectordb/internal/vectormath"
)

// NSWConfig configures a Navigable Small World index. Zero values fall
// back to the defaults resolved in NewNSWIndex.
type NSWConfig struct {
	// M is the target degree per node. 0 means 8.
	M int
	// EfConstruction is the candidate list size used while inserting.
	// 0 means 32.
	EfConstruction int
	// EfSearch is the candidate list size used while querying. 0 means
	// max(k, 32), resolved per-search since it depends on k.
	EfSearch int
}

const (
	defaultM              = 8
	defaultEfConstruction = 32
	defaultEfSearchFloor  = 32
)

// nswNode holds one graph node: its vector and an ordered adjacency list
// (insertion order preserved, membership tracked separately for O(1)
// contains checks during pruning and removal).
type nswNode struct {
	vector    []float32
	neighbors []string
	memberOf  map[string]struct{}
}

func newNSWNode(vector []float32) *nswNode {
	return &nswNode{vector: vector, memberOf: make(map[string]struct{})}
}

func (n *nswNode) addNeighbor(id string) {
	if _, ok := n.memberOf[id]; ok {
		return
	}
	n.memberOf[id] = struct{}{}
	n.neighbors = append(n.neighbors, id)
}

func (n *nswNode) removeNeighbor(id string) {
	if _, ok := n.memberOf[id]; !ok {
		return
	}
	delete(n.memberOf, id)
	for i, nb := range n.neighbors {
		if nb == id {
			n.neighbors = append(n.neighbors[:i], n.neighbors[i+1:]...)
			break
		}
	}
}

func (n *nswNode) setNeighbors(ids []string) {
	n.neighbors = append([]string(nil), ids...)
	n.memberOf = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		n.memberOf[id] = struct{}{}
	}
}

// NSWIndex is a bidirectional proximity graph searched by greedy walk
// with a bounded candidate list, the classic Navigable Small World
// construction. Hand-rolled rather than wrapping github.com/coder/hnsw —
// see DESIGN.md: that library cannot satisfy this spec's removal
// invariants.
type NSWIndex struct {
	mu    sync.RWMutex
	cfg   NSWConfig
	nodes map[string]*nswNode
	entry string // "" means no entry point
	dim   int
}

// NewNSWIndex returns an empty NSW index with the given configuration.
func NewNSWIndex(cfg NSWConfig) *NSWIndex {
	if cfg.M == 0 {
		cfg.M = defaultM
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = defaultEfConstruction
	}
	return &NSWIndex{cfg: cfg, nodes: make(map[string]*nswNode)}
}

func (idx *NSWIndex) mMax() int { return 2 * idx.cfg.M }

// distItem pairs an id with its distance to the query, used by both the
// candidate and results heaps in the greedy walk.
type distItem struct {
	id   string
	dist float64
}

// candMinHeap orders by ascending distance (nearest first): the
// candidate frontier explores the closest unvisited nodes first.
type candMinHeap []distItem

func (h candMinHeap) Len() int            { return len(h) }
func (h candMinHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h candMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candMinHeap) Push(x any)         { *h = append(*h, x.(distItem)) }
func (h *candMinHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// resultMaxHeap orders by descending distance (worst first): capped at
// ef, so the root is always the candidate to evict when a closer node
// is found.
type resultMaxHeap []distItem

func (h resultMaxHeap) Len() int            { return len(h) }
func (h resultMaxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h resultMaxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultMaxHeap) Push(x any)         { *h = append(*h, x.(distItem)) }
func (h *resultMaxHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// greedy runs the bounded candidate-list search from entry and returns
// up to ef results sorted ascending by distance. Caller must hold at
// least a read lock.
func (idx *NSWIndex) greedy(query []float32, entry string, ef int) []distItem {
	visited := map[string]struct{}{entry: {}}

	entryDist := vectormath.CosineDistance(query, idx.nodes[entry].vector)

	candidates := &candMinHeap{{id: entry, dist: entryDist}}
	heap.Init(candidates)

	results := &resultMaxHeap{{id: entry, dist: entryDist}}
	heap.Init(results)

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(distItem)

		if results.Len() >= ef && c.dist > (*results)[0].dist {
			break
		}

		node := idx.nodes[c.id]
		for _, nbID := range node.neighbors {
			if _, seen := visited[nbID]; seen {
				continue
			}
			visited[nbID] = struct{}{}

			nb, ok := idx.nodes[nbID]
			if !ok {
				continue
			}
			d := vectormath.CosineDistance(query, nb.vector)
			heap.Push(candidates, distItem{id: nbID, dist: d})

			if results.Len() < ef {
				heap.Push(results, distItem{id: nbID, dist: d})
			} else if d < (*results)[0].dist {
				heap.Pop(results)
				heap.Push(results, distItem{id: nbID, dist: d})
			}
		}
	}

	out := make([]distItem, results.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(results).(distItem)
	}
	return out
}

// Rebuild replaces all graph state by re-inserting every item in order
// (NSW construction is inherently sequential: each insert's neighbors
// depend on the graph built so far).
func (idx *NSWIndex) Rebuild(items []Item) error {
	idx.mu.Lock()
	idx.nodes = make(map[string]*nswNode)
	idx.entry = ""
	idx.dim = 0
	idx.mu.Unlock()

	for _, it := range items {
		if err := idx.Add(it); err != nil {
			return err
		}
	}
	return nil
}

// Add runs greedy(item.vector, entry_point, ef_construction), links the
// new node to the nearest M results, adds back-edges, and prunes any
// neighbor whose degree now exceeds M_max down to its M closest
// neighbors.
func (idx *NSWIndex) Add(item Item) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dim != 0 && len(item.Embedding) != idx.dim {
		return vdberrors.DimensionMismatch(idx.dim, len(item.Embedding))
	}
	if idx.dim == 0 {
		idx.dim = len(item.Embedding)
	}

	node := newNSWNode(cloneVector(item.Embedding))

	if idx.entry == "" {
		idx.nodes[item.ID] = node
		idx.entry = item.ID
		return nil
	}

	// Re-adding an id that already exists: drop it first so it doesn't
	// link to itself or leave stale back-edges.
	if _, exists := idx.nodes[item.ID]; exists {
		idx.removeLocked(item.ID)
		if idx.entry == "" {
			idx.nodes[item.ID] = node
			idx.entry = item.ID
			return nil
		}
	}

	candidates := idx.greedy(item.Embedding, idx.entry, idx.cfg.EfConstruction)
	m := idx.cfg.M
	if m > len(candidates) {
		m = len(candidates)
	}

	neighbors := make([]string, m)
	for i := 0; i < m; i++ {
		neighbors[i] = candidates[i].id
	}
	node.setNeighbors(neighbors)
	idx.nodes[item.ID] = node

	for _, nbID := range neighbors {
		nb := idx.nodes[nbID]
		nb.addNeighbor(item.ID)
		if len(nb.neighbors) > idx.mMax() {
			idx.pruneNeighbors(nbID, nb)
		}
	}

	return nil
}

// pruneNeighbors keeps only node's M closest neighbors (by distance to
// node), dropping the corresponding back-edges on the pruned nodes.
func (idx *NSWIndex) pruneNeighbors(id string, node *nswNode) {
	scored := make([]distItem, len(node.neighbors))
	for i, nbID := range node.neighbors {
		scored[i] = distItem{id: nbID, dist: vectormath.CosineDistance(node.vector, idx.nodes[nbID].vector)}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].dist < scored[j].dist })

	keep := idx.cfg.M
	if keep > len(scored) {
		keep = len(scored)
	}

	newNeighbors := make([]string, keep)
	for i := 0; i < keep; i++ {
		newNeighbors[i] = scored[i].id
	}

	for i := keep; i < len(scored); i++ {
		dropped := scored[i].id
		if dn, ok := idx.nodes[dropped]; ok {
			dn.removeNeighbor(id)
		}
	}

	node.setNeighbors(newNeighbors)
}

// Remove drops the node and every edge pointing to it. If the removed
// node was the entry point, promotes the surviving node with the
// highest degree (ties by ascending id), or sets entry to none if the
// graph is now empty.
func (idx *NSWIndex) Remove(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeLocked(id)
	return nil
}

func (idx *NSWIndex) removeLocked(id string) {
	node, ok := idx.nodes[id]
	if !ok {
		return
	}
	for _, nbID := range node.neighbors {
		if nb, ok := idx.nodes[nbID]; ok {
			nb.removeNeighbor(id)
		}
	}
	delete(idx.nodes, id)

	if idx.entry != id {
		return
	}

	if len(idx.nodes) == 0 {
		idx.entry = ""
		return
	}

	bestID := ""
	bestDegree := -1
	ids := make([]string, 0, len(idx.nodes))
	for nid := range idx.nodes {
		ids = append(ids, nid)
	}
	sort.Strings(ids)
	for _, nid := range ids {
		degree := len(idx.nodes[nid].neighbors)
		if degree > bestDegree {
			bestDegree = degree
			bestID = nid
		}
	}
	idx.entry = bestID
}

// Len reports the number of nodes currently in the graph.
func (idx *NSWIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

// Search runs greedy(query, entry_point, ef_search), truncates to k, and
// converts distance to similarity (similarity = 1 - cosine distance).
func (idx *NSWIndex) Search(query []float32, k int) ([]Scored, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 {
		return nil, vdberrors.InvalidInput("k must be positive")
	}
	if idx.entry == "" {
		return []Scored{}, nil
	}

	ef := idx.cfg.EfSearch
	if ef == 0 {
		ef = k
		if ef < defaultEfSearchFloor {
			ef = defaultEfSearchFloor
		}
	}

	found := idx.greedy(query, idx.entry, ef)
	sort.SliceStable(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		return found[i].id < found[j].id
	})

	if k > len(found) {
		k = len(found)
	}
	results := make([]Scored, k)
	for i := 0; i < k; i++ {
		results[i] = Scored{ID: found[i].id, Score: 1 - found[i].dist}
	}
	return results, nil
}

// Ids returns every id currently indexed, in no particular order.
func (idx *NSWIndex) Ids() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.nodes))
	for id := range idx.nodes {
		ids = append(ids, id)
	}
	return ids
}

var _ Index = (*NSWIndex)(nil)
var _ Ider = (*NSWIndex)(nil)
