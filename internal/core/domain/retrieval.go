package domain

// Query is a retrieval request issued on behalf of one extraction field.
type Query struct {
	// Field is the extraction field this query serves.
	Field string

	// Text is the query text.
	Text string
}

// RetrievalHit is a single similarity search result, scoped to the
// namespace it came from. Hits are ordered descending by score and
// deduplicated by chunk ID within a retrieval round.
type RetrievalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// NamespaceID is the namespace the chunk belongs to.
	NamespaceID string

	// Content is the chunk text.
	Content string

	// Span is the chunk's source range within the document.
	Span Span

	// Score is the similarity score (0-1, cosine).
	Score float64
}

// RerankedResult is a retrieval hit after the reranking pass.
// When reranking is disabled the rerank score equals the similarity score.
type RerankedResult struct {
	RetrievalHit

	// RerankScore is the relevance score assigned by the reranker.
	RerankScore float64
}
