package driven

import (
	"context"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// VectorStore persists embedded chunks and serves similarity queries,
// scoped by namespace. Chunks from different namespaces never mix.
type VectorStore interface {
	// Upsert stores chunks under their namespace. Upserting a chunk ID
	// that already exists overwrites it (indexing is idempotent).
	Upsert(ctx context.Context, namespaceID string, chunks []domain.Chunk) error

	// Query finds the k nearest chunks to the query vector within the
	// namespace, ordered descending by cosine similarity.
	Query(ctx context.Context, namespaceID string, vector []float32, k int) ([]VectorHit, error)

	// Clear removes every chunk stored under the namespace. Atomic with
	// respect to concurrent Upsert/Query on the same namespace.
	Clear(ctx context.Context, namespaceID string) error

	// Ping validates the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk (embedding omitted by implementations
	// that do not keep it hot).
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
