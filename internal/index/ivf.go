package index

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/aaronbannin/vectordb/internal/vdberrors"
	"github.com/aaronbannin/vectordb/internal/vectormath"
)

// IVFConfig configures an IVF index's build and search parameters. Zero
// values fall back to the defaults resolved in NewIVFIndex.
type IVFConfig struct {
	// NCentroids is k_c, the number of clusters. 0 means
	// max(1, floor(sqrt(n))) at rebuild time.
	NCentroids int
	// NProbe is the number of nearest clusters searched per query. 0
	// means max(1, ceil(k_c/4)).
	NProbe int
	// MaxIterations caps Lloyd's k-means iterations. 0 means 25.
	MaxIterations int
	// Seed seeds the centroid-sampling PRNG for reproducible tests.
	Seed uint64
}

const defaultMaxIterations = 25

// IVFIndex clusters vectors with Lloyd's k-means and probes the nearest
// few clusters per query, trading recall for speed relative to the exact
// cosine index. Centroid drift from incremental Add is tolerated until
// the next Rebuild.
type IVFIndex struct {
	mu     sync.RWMutex
	config IVFConfig
	rng    *rand.Rand

	dim         int
	centroids   [][]float32
	postings    map[int]map[string]struct{}
	vectors     map[string][]float32
	assignments map[string]int
}

// NewIVFIndex returns an empty IVF index with the given configuration.
func NewIVFIndex(config IVFConfig) *IVFIndex {
	if config.MaxIterations == 0 {
		config.MaxIterations = defaultMaxIterations
	}
	return &IVFIndex{
		config:      config,
		rng:         rand.New(rand.NewPCG(config.Seed, config.Seed)),
		postings:    make(map[int]map[string]struct{}),
		vectors:     make(map[string][]float32),
		assignments: make(map[string]int),
	}
}

func (idx *IVFIndex) nCentroids(n int) int {
	if idx.config.NCentroids > 0 {
		return idx.config.NCentroids
	}
	kc := int(sqrtFloor(n))
	if kc < 1 {
		kc = 1
	}
	return kc
}

func (idx *IVFIndex) nProbe(kc int) int {
	if idx.config.NProbe > 0 {
		return idx.config.NProbe
	}
	np := (kc + 3) / 4 // ceil(kc/4)
	if np < 1 {
		np = 1
	}
	return np
}

func sqrtFloor(n int) int {
	if n <= 0 {
		return 0
	}
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// Rebuild runs Lloyd's k-means over items and replaces all internal
// state: random sampling without replacement for initial centroids,
// cosine-distance assignment, normalized-mean recompute, empty-cluster
// reseeding to the farthest vector from its centroid.
func (idx *IVFIndex) Rebuild(items []Item) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	vectors := make(map[string][]float32, len(items))
	ids := make([]string, 0, len(items))
	dim := 0
	for _, it := range items {
		if dim == 0 {
			dim = len(it.Embedding)
		} else if len(it.Embedding) != dim {
			return vdberrors.DimensionMismatch(dim, len(it.Embedding))
		}
		vectors[it.ID] = cloneVector(it.Embedding)
		ids = append(ids, it.ID)
	}

	idx.vectors = vectors
	idx.dim = dim

	if len(ids) == 0 {
		idx.centroids = nil
		idx.postings = make(map[int]map[string]struct{})
		idx.assignments = make(map[string]int)
		return nil
	}

	kc := idx.nCentroids(len(ids))
	if kc > len(ids) {
		kc = len(ids)
	}

	sort.Strings(ids) // deterministic iteration order for reproducible sampling

	centroids := idx.sampleInitialCentroids(ids, vectors, kc)
	assignments := make(map[string]int, len(ids))

	for iter := 0; iter < idx.config.MaxIterations; iter++ {
		changed := false
		clusterMembers := make(map[int][]string, len(centroids))

		for _, id := range ids {
			vec := vectors[id]
			nearest := nearestCentroid(vec, centroids)
			if prev, ok := assignments[id]; !ok || prev != nearest {
				changed = true
			}
			assignments[id] = nearest
			clusterMembers[nearest] = append(clusterMembers[nearest], id)
		}

		for c := range centroids {
			members := clusterMembers[c]
			if len(members) == 0 {
				// Reseed to the vector farthest from its current centroid.
				farthest := farthestVector(ids, vectors, assignments, centroids)
				if farthest != "" {
					centroids[c] = cloneVector(vectors[farthest])
					changed = true
				}
				continue
			}
			memberVectors := make([][]float32, len(members))
			for i, id := range members {
				memberVectors[i] = vectors[id]
			}
			centroids[c] = vectormath.Normalize(vectormath.Mean(memberVectors))
		}

		if !changed {
			break
		}
	}

	postings := make(map[int]map[string]struct{}, len(centroids))
	for _, id := range ids {
		c := assignments[id]
		if postings[c] == nil {
			postings[c] = make(map[string]struct{})
		}
		postings[c][id] = struct{}{}
	}

	idx.centroids = centroids
	idx.postings = postings
	idx.assignments = assignments
	return nil
}

// sampleInitialCentroids picks kc centroids by random sampling without
// replacement from the input ids.
func (idx *IVFIndex) sampleInitialCentroids(ids []string, vectors map[string][]float32, kc int) [][]float32 {
	perm := idx.rng.Perm(len(ids))
	centroids := make([][]float32, kc)
	for i := 0; i < kc; i++ {
		centroids[i] = cloneVector(vectors[ids[perm[i]]])
	}
	return centroids
}

func nearestCentroid(vec []float32, centroids [][]float32) int {
	best := 0
	bestDist := vectormath.CosineDistance(vec, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := vectormath.CosineDistance(vec, centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func farthestVector(ids []string, vectors map[string][]float32, assignments map[string]int, centroids [][]float32) string {
	farthest := ""
	farthestDist := -1.0
	for _, id := range ids {
		d := vectormath.CosineDistance(vectors[id], centroids[assignments[id]])
		if d > farthestDist {
			farthestDist = d
			farthest = id
		}
	}
	return farthest
}

// Add finds the nearest centroid (linear over k_c) and inserts into its
// posting list. Centroids are not updated incrementally; drift is
// accepted until the next Rebuild.
func (idx *IVFIndex) Add(item Item) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dim != 0 && len(item.Embedding) != idx.dim {
		return vdberrors.DimensionMismatch(idx.dim, len(item.Embedding))
	}
	if idx.dim == 0 {
		idx.dim = len(item.Embedding)
	}

	idx.vectors[item.ID] = cloneVector(item.Embedding)

	if len(idx.centroids) == 0 {
		// No centroids yet (first insert ever, or rebuilt from nothing).
		// Seed a single centroid from this vector so the index is usable
		// before the next full Rebuild runs k-means properly.
		idx.centroids = [][]float32{cloneVector(item.Embedding)}
	}

	c := nearestCentroid(item.Embedding, idx.centroids)
	if idx.postings[c] == nil {
		idx.postings[c] = make(map[string]struct{})
	}
	idx.postings[c][item.ID] = struct{}{}
	idx.assignments[item.ID] = c
	return nil
}

// Remove looks up the assignment and erases the vector from its posting
// list and from vectors. Removing an absent id is a no-op.
func (idx *IVFIndex) Remove(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	c, ok := idx.assignments[id]
	if !ok {
		return nil
	}
	delete(idx.postings[c], id)
	delete(idx.assignments, id)
	delete(idx.vectors, id)
	return nil
}

// Len reports the number of indexed vectors.
func (idx *IVFIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Search scores all centroids by cosine similarity to query, selects the
// top n_probe, unions their posting lists, scores each candidate
// exactly, and returns the top-k.
func (idx *IVFIndex) Search(query []float32, k int) ([]Scored, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 {
		return nil, vdberrors.InvalidInput("k must be positive")
	}
	if len(idx.centroids) == 0 {
		return []Scored{}, nil
	}

	type centroidScore struct {
		idx   int
		score float64
	}
	scores := make([]centroidScore, len(idx.centroids))
	for i, c := range idx.centroids {
		scores[i] = centroidScore{idx: i, score: vectormath.CosineSimilarity(query, c)}
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	nProbe := idx.nProbe(len(idx.centroids))
	if nProbe > len(scores) {
		nProbe = len(scores)
	}

	seen := make(map[string]struct{})
	results := make([]Scored, 0, k*2)
	for _, cs := range scores[:nProbe] {
		for id := range idx.postings[cs.idx] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			results = append(results, Scored{ID: id, Score: vectormath.CosineSimilarity(query, idx.vectors[id])})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Ids returns every id currently indexed, in no particular order.
func (idx *IVFIndex) Ids() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.vectors))
	for id := range idx.vectors {
		ids = append(ids, id)
	}
	return ids
}

var _ Index = (*IVFIndex)(nil)
var _ Ider = (*IVFIndex)(nil)
