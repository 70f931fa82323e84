package driven

import "context"

// RerankerService provides a second relevance-scoring pass over a
// candidate pool to improve precision before final selection.
// This is an optional service - when nil, the pipeline falls back to
// similarity-ranked order.
//
// Implementations may include:
//   - DashScope (gte-rerank-v2)
//   - Cohere rerank
//   - Local cross-encoder inference servers
type RerankerService interface {
	// Rerank scores the candidate texts against the query and returns
	// the top topK candidates, ordered descending by relevance.
	Rerank(ctx context.Context, query string, candidates []string, topK int) ([]RerankHit, error)

	// ModelName returns the name of the reranking model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// RerankHit is one reranked candidate.
type RerankHit struct {
	// Index is the candidate's position in the input slice.
	Index int

	// Score is the reranker's relevance score.
	Score float64
}
