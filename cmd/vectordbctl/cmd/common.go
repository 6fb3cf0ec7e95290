package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aaronbannin/vectordb/internal/collection"
	"github.com/aaronbannin/vectordb/internal/config"
	"github.com/aaronbannin/vectordb/internal/index"
)

// indexTypes lists the index-type tags vectordbctl attaches to every
// collection it opens. A real deployer configures exactly which types
// matter for its workload; this CLI attaches all three so stats/rebuild/
// verify always report on the full set.
var indexTypes = []string{"cosine", "ivf", "nsw"}

// openCollection opens the collection directory dataDir/name and
// attaches one instance of every index type, seeded from defaults.
func openCollection(dataDir, name string, defaults config.CollectionDefaults) (*collection.Collection, error) {
	dir := filepath.Join(dataDir, name)
	c, err := collection.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", name, err)
	}

	if err := c.AddIndex("cosine", index.NewCosineIndex()); err != nil {
		return nil, fmt.Errorf("attach cosine index: %w", err)
	}
	if err := c.AddIndex("ivf", index.NewIVFIndex(index.IVFConfig{
		NCentroids: defaults.KC,
		NProbe:     defaults.NProbe,
		Seed:       defaults.Seed,
	})); err != nil {
		return nil, fmt.Errorf("attach ivf index: %w", err)
	}
	if err := c.AddIndex("nsw", index.NewNSWIndex(index.NSWConfig{
		M:              defaults.M,
		EfConstruction: defaults.EfConstruction,
		EfSearch:       defaults.EfSearch,
	})); err != nil {
		return nil, fmt.Errorf("attach nsw index: %w", err)
	}
	return c, nil
}

// listCollections returns the names of every collection directory under
// dataDir (one subdirectory per collection).
func listCollections(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("list data directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
