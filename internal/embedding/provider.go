// Package embedding converts chunk text into vectors. Provider is the
// seam between the collection layer and whatever produces embeddings;
// the only implementation shipped here is deterministic and
// dependency-free. A network-backed provider (a hosted API, a local
// model server) can satisfy the same interface without touching
// collection code.
package embedding

import "context"

// Provider generates a vector embedding for a piece of text.
type Provider interface {
	// Embed generates the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding dimension this provider produces.
	Dimensions() int
}
