// Package index defines the pluggable ANN index abstraction and its three
// concrete strategies: exact cosine (cosine.go), Inverted-File clustering
// (ivf.go), and Navigable Small World graph (nsw.go). Indexes hold
// vectors by value — they never reference the record store's files.
package index

// Item is a single (id, embedding) pair as presented to an index. The
// index copies the embedding on insert; mutating the slice afterward has
// no effect on index state.
type Item struct {
	ID        string
	Embedding []float32
}

// Scored is a single search result: an id and a similarity score where
// higher means closer. Callers get an ordered (descending score) list
// with length <= k.
type Scored struct {
	ID    string
	Score float64
}

// Index is the capability contract every strategy implements. Collection
// (internal/collection) holds a map from index-type tag to an Index
// value and never inspects a strategy's internals.
type Index interface {
	// Rebuild replaces all internal state with the given items. Used on
	// process start and whenever a caller wants a full reconstruction
	// (e.g. to undo IVF centroid drift).
	Rebuild(items []Item) error

	// Add incorporates one item, preserving the index's invariants.
	// Mixed-dimension inserts (relative to prior items) must fail.
	Add(item Item) error

	// Remove drops the item with the given id. Removing an absent id is
	// a no-op, not an error — the collection already tolerates absence
	// at this layer.
	Remove(id string) error

	// Search returns the top-k (id, score) pairs for query, ordered by
	// descending score, ties broken by ascending id. Returns an empty
	// (not nil-panicking) slice against an empty index.
	Search(query []float32, k int) ([]Scored, error)

	// Len reports how many items the index currently holds.
	Len() int
}

// Ider is an optional capability a strategy may implement for
// introspection — currently used only by vectordbctl verify to check
// the ids(index) = ids(store) check vectordbctl verify performs. It is not part of
// the core Index contract: a future strategy that can't cheaply
// enumerate its ids is still a valid Index.
type Ider interface {
	Ids() []string
}
