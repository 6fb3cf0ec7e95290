// Package collection binds a record store to a set of named vector
// indexes and is the single entry point for CRUD and search over the
// Library/Document/Chunk hierarchy. One Collection owns three stores
// (libraries, documents, chunks) and zero or more attached indexes,
// keyed by the index-type tag they were added under (e.g. "cosine",
// "ivf", "nsw").
package collection

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/aaronbannin/vectordb/internal/index"
	"github.com/aaronbannin/vectordb/internal/model"
	"github.com/aaronbannin/vectordb/internal/store"
	"github.com/aaronbannin/vectordb/internal/vdberrors"
)

// Filter is a predicate over a chunk's metadata, applied to search
// results after the index returns them (post-filtering), per the
// design note that pre-filtering inside an index is not required.
type Filter func(metadata map[string]any) bool

// Result pairs a chunk with its similarity score, ordered by descending
// score by Search.
type Result struct {
	Chunk model.Chunk
	Score float64
}

// Collection is safe for concurrent use. Every exported method acquires
// rwLock per the contract documented on that type.
type Collection struct {
	lock rwLock

	dir       string
	libraries *store.Store
	documents *store.Store
	chunks    *store.Store

	indexes map[string]index.Index
	dim     int
}

// Open returns a Collection rooted at dir, creating its three record
// stores (and dir itself) as needed and restoring the dimension
// established by a prior process, if any.
func Open(dir string) (*Collection, error) {
	libraries, err := store.Open(filepath.Join(dir, string(model.KindLibrary)), "library")
	if err != nil {
		return nil, err
	}
	documents, err := store.Open(filepath.Join(dir, string(model.KindDocument)), "document")
	if err != nil {
		return nil, err
	}
	chunks, err := store.Open(filepath.Join(dir, string(model.KindChunk)), "chunk")
	if err != nil {
		return nil, err
	}
	dim, err := readSidecar(dir)
	if err != nil {
		return nil, err
	}
	return &Collection{
		dir:       dir,
		libraries: libraries,
		documents: documents,
		chunks:    chunks,
		indexes:   make(map[string]index.Index),
		dim:       dim,
	}, nil
}

// --- libraries ---

// CreateLibrary writes lib to the store. Libraries carry no embedding,
// so there is no index or dimension check.
func (c *Collection) CreateLibrary(lib model.Library) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.libraries.Put(lib.ID, lib)
}

// GetLibrary returns the library for id.
func (c *Collection) GetLibrary(id string) (model.Library, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	var lib model.Library
	err := c.libraries.Get(id, &lib)
	return lib, err
}

// ListLibraries returns every library in the store, in no particular
// order.
func (c *Collection) ListLibraries() ([]model.Library, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	ids, err := c.libraries.List()
	if err != nil {
		return nil, err
	}
	out := make([]model.Library, 0, len(ids))
	for _, id := range ids {
		var lib model.Library
		if err := c.libraries.Get(id, &lib); err != nil {
			return nil, err
		}
		out = append(out, lib)
	}
	return out, nil
}

// UpdateLibrary overwrites the stored library.
func (c *Collection) UpdateLibrary(lib model.Library) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.libraries.Put(lib.ID, lib)
}

// DeleteLibrary removes the library and cascades: every document whose
// LibraryID is id is deleted, which in turn cascades to its chunks.
// Tolerates an already-absent library: the cascade still runs so a
// partially-completed prior delete converges.
func (c *Collection) DeleteLibrary(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	docIDs, err := c.documentIDsByLibrary(id)
	if err != nil {
		return err
	}
	for _, docID := range docIDs {
		if err := c.deleteDocumentLocked(docID); err != nil {
			return err
		}
	}

	if err := c.libraries.Delete(id); err != nil {
		if kind, ok := vdberrors.Of(err); !ok || kind != vdberrors.KindNotFound {
			return err
		}
	}
	return nil
}

func (c *Collection) documentIDsByLibrary(libraryID string) ([]string, error) {
	ids, err := c.documents.List()
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, id := range ids {
		var doc model.Document
		if err := c.documents.Get(id, &doc); err != nil {
			return nil, err
		}
		if doc.LibraryID == libraryID {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// --- documents ---

// CreateDocument writes doc to the store.
func (c *Collection) CreateDocument(doc model.Document) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.documents.Put(doc.ID, doc)
}

// GetDocument returns the document for id.
func (c *Collection) GetDocument(id string) (model.Document, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	var doc model.Document
	err := c.documents.Get(id, &doc)
	return doc, err
}

// ListDocuments returns every document in the store.
func (c *Collection) ListDocuments() ([]model.Document, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	ids, err := c.documents.List()
	if err != nil {
		return nil, err
	}
	out := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		var doc model.Document
		if err := c.documents.Get(id, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// UpdateDocument overwrites the stored document.
func (c *Collection) UpdateDocument(doc model.Document) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.documents.Put(doc.ID, doc)
}

// DeleteDocument removes the document and cascades to every chunk whose
// DocumentID is id.
func (c *Collection) DeleteDocument(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.deleteDocumentLocked(id)
}

func (c *Collection) deleteDocumentLocked(id string) error {
	chunkIDs, err := c.chunkIDsByDocument(id)
	if err != nil {
		return err
	}
	for _, chunkID := range chunkIDs {
		if err := c.deleteChunkLocked(chunkID); err != nil {
			return err
		}
	}

	if err := c.documents.Delete(id); err != nil {
		if kind, ok := vdberrors.Of(err); !ok || kind != vdberrors.KindNotFound {
			return err
		}
	}
	return nil
}

func (c *Collection) chunkIDsByDocument(documentID string) ([]string, error) {
	ids, err := c.chunks.List()
	if err != nil {
		return nil, err
	}
	var matched []string
	for _, id := range ids {
		var ch model.Chunk
		if err := c.chunks.Get(id, &ch); err != nil {
			return nil, err
		}
		if ch.DocumentID == documentID {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// --- chunks ---

// CreateChunk validates the chunk's embedding dimension against the
// collection's established dimension (setting it, and persisting it to
// the sidecar, if this is the first chunk ever created), writes the
// chunk to the store, then adds it to every attached index. A store
// failure aborts with no index mutation; an index failure after a
// successful store write is logged and the call still returns success —
// the next StartupRebuild reconciles it.
func (c *Collection) CreateChunk(chunk model.Chunk) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.checkDimensionLocked(chunk.Embedding); err != nil {
		return err
	}

	if err := c.chunks.Put(chunk.ID, chunk); err != nil {
		return err
	}

	if c.dim == 0 {
		c.dim = len(chunk.Embedding)
		if err := writeSidecar(c.dir, c.dim); err != nil {
			return err
		}
	}

	c.addToIndexes(chunk)
	return nil
}

func (c *Collection) checkDimensionLocked(embedding []float32) error {
	if c.dim != 0 && len(embedding) != c.dim {
		return vdberrors.DimensionMismatch(c.dim, len(embedding))
	}
	return nil
}

func (c *Collection) addToIndexes(chunk model.Chunk) {
	item := index.Item{ID: chunk.ID, Embedding: chunk.Embedding}
	for name, idx := range c.indexes {
		if err := idx.Add(item); err != nil {
			slog.Warn("index add failed after store write; will reconcile on next rebuild",
				slog.String("index", name), slog.String("chunk_id", chunk.ID), slog.Any("error", err))
		}
	}
}

// GetChunk returns the chunk for id.
func (c *Collection) GetChunk(id string) (model.Chunk, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	var ch model.Chunk
	err := c.chunks.Get(id, &ch)
	return ch, err
}

// ListChunks returns every chunk in the store.
func (c *Collection) ListChunks() ([]model.Chunk, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	ids, err := c.chunks.List()
	if err != nil {
		return nil, err
	}
	out := make([]model.Chunk, 0, len(ids))
	for _, id := range ids {
		var ch model.Chunk
		if err := c.chunks.Get(id, &ch); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// UpdateChunk rewrites the store, then removes the previous version from
// every index and re-adds the new one. A store failure aborts with no
// index mutation. Dimension is checked against the collection's
// established dimension exactly as in CreateChunk.
func (c *Collection) UpdateChunk(chunk model.Chunk) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.checkDimensionLocked(chunk.Embedding); err != nil {
		return err
	}

	if err := c.chunks.Put(chunk.ID, chunk); err != nil {
		return err
	}

	for name, idx := range c.indexes {
		if err := idx.Remove(chunk.ID); err != nil {
			slog.Warn("index remove failed during update", slog.String("index", name), slog.String("chunk_id", chunk.ID), slog.Any("error", err))
		}
	}

	c.addToIndexes(chunk)
	return nil
}

// DeleteChunk removes the chunk from the store and calls Remove(id) on
// every attached index, tolerating absence in either.
func (c *Collection) DeleteChunk(id string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.deleteChunkLocked(id)
}

func (c *Collection) deleteChunkLocked(id string) error {
	if err := c.chunks.Delete(id); err != nil {
		if kind, ok := vdberrors.Of(err); !ok || kind != vdberrors.KindNotFound {
			return err
		}
	}
	for name, idx := range c.indexes {
		if err := idx.Remove(id); err != nil {
			slog.Warn("index remove failed", slog.String("index", name), slog.String("chunk_id", id), slog.Any("error", err))
		}
	}
	return nil
}

// --- indexes ---

// AddIndex registers idx under name and immediately rebuilds it from
// every chunk currently in the store, so a newly attached index starts
// consistent with existing data.
func (c *Collection) AddIndex(name string, idx index.Index) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	items, err := c.allChunkItemsLocked()
	if err != nil {
		return err
	}
	if err := idx.Rebuild(items); err != nil {
		return err
	}
	c.indexes[name] = idx
	return nil
}

// StartupRebuild reloads every chunk from the store and rebuilds every
// attached index. The indexes share no mutable state with each other —
// only with the store, which is not mutated during rebuild — so they
// rebuild concurrently via errgroup.
func (c *Collection) StartupRebuild() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	items, err := c.allChunkItemsLocked()
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	for name, idx := range c.indexes {
		name, idx := name, idx
		g.Go(func() error {
			if err := idx.Rebuild(items); err != nil {
				return vdberrors.StorageIO("rebuild index "+name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (c *Collection) allChunkItemsLocked() ([]index.Item, error) {
	ids, err := c.chunks.List()
	if err != nil {
		return nil, err
	}
	items := make([]index.Item, 0, len(ids))
	for _, id := range ids {
		var ch model.Chunk
		if err := c.chunks.Get(id, &ch); err != nil {
			return nil, err
		}
		items = append(items, index.Item{ID: ch.ID, Embedding: ch.Embedding})
	}
	return items, nil
}

// --- search ---

// Search looks up the named index, runs the query through it, resolves
// each returned id against the chunk store, applies filter (if any) by
// post-filtering the ordered result, then truncates to k.
func (c *Collection) Search(indexType string, query []float32, k int, filter Filter) ([]Result, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	idx, ok := c.indexes[indexType]
	if !ok {
		return nil, vdberrors.UnknownIndex(indexType)
	}
	if k <= 0 {
		return nil, vdberrors.InvalidInput("k must be positive")
	}

	scored, err := idx.Search(query, k)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(scored))
	for _, s := range scored {
		var ch model.Chunk
		if err := c.chunks.Get(s.ID, &ch); err != nil {
			if kind, ok := vdberrors.Of(err); ok && kind == vdberrors.KindNotFound {
				continue // index lagging the store; never surface a dangling id
			}
			return nil, err
		}
		if filter != nil && !filter(ch.Metadata) {
			continue
		}
		results = append(results, Result{Chunk: ch, Score: s.Score})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// IndexLen reports the size of the named attached index, used by
// vectordbctl stats/verify.
func (c *Collection) IndexLen(indexType string) (int, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	idx, ok := c.indexes[indexType]
	if !ok {
		return 0, vdberrors.UnknownIndex(indexType)
	}
	return idx.Len(), nil
}

// IndexIds returns the ids held by the named index, for strategies that
// implement index.Ider. ok is false if the index doesn't support
// introspection (it is still a valid Index; it just can't be checked by
// vectordbctl verify).
func (c *Collection) IndexIds(indexType string) (ids []string, ok bool, err error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	idx, exists := c.indexes[indexType]
	if !exists {
		return nil, false, vdberrors.UnknownIndex(indexType)
	}
	ider, supported := idx.(index.Ider)
	if !supported {
		return nil, false, nil
	}
	return ider.Ids(), true, nil
}

// IndexNames returns the names of every attached index, sorted.
func (c *Collection) IndexNames() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
