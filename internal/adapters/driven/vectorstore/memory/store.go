// Package memory provides an in-memory vector store implementation.
// Used for tests and for one-shot analyses that need no persistence.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a thread-safe in-memory vector store scoped by namespace.
type Store struct {
	mu sync.RWMutex
	// namespaces maps namespace ID -> chunk ID -> chunk.
	namespaces map[string]map[string]domain.Chunk
}

// NewStore creates an empty in-memory vector store.
func NewStore() *Store {
	return &Store{namespaces: make(map[string]map[string]domain.Chunk)}
}

// Upsert stores chunks under their namespace, overwriting by chunk ID.
func (s *Store) Upsert(_ context.Context, namespaceID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespaceID]
	if !ok {
		ns = make(map[string]domain.Chunk, len(chunks))
		s.namespaces[namespaceID] = ns
	}
	for _, chunk := range chunks {
		ns[chunk.ID] = chunk
	}
	return nil
}

// Query returns the k most similar chunks within the namespace, ordered
// descending by cosine similarity.
func (s *Store) Query(_ context.Context, namespaceID string, vector []float32, k int) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.namespaces[namespaceID]
	hits := make([]driven.VectorHit, 0, len(ns))
	for _, chunk := range ns {
		hits = append(hits, driven.VectorHit{
			Chunk:      chunk,
			Similarity: cosineSimilarity(vector, chunk.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Clear removes every chunk stored under the namespace.
func (s *Store) Clear(_ context.Context, namespaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespaceID)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close releases resources.
func (s *Store) Close() error { return nil }

// Count returns the number of chunks in a namespace. Test helper.
func (s *Store) Count(namespaceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespaceID])
}

// cosineSimilarity computes the cosine similarity of two vectors,
// mapped into [0, 1]. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
