package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// Indexer splits document text into overlapping chunks, embeds them and
// upserts them into the session namespace.
type Indexer struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	cfg      domain.Config
}

// NewIndexer creates an indexer using the pipeline configuration.
func NewIndexer(store driven.VectorStore, embedder driven.EmbeddingService, cfg domain.Config) *Indexer {
	return &Indexer{store: store, embedder: embedder, cfg: cfg}
}

// Index chunks, embeds and stores the document. It returns the number of
// chunks written.
//
// Empty or whitespace-only documents fail fast with
// domain.ErrEmptyDocument before any embedding calls are issued.
// Re-indexing the same document into the same namespace overwrites the
// existing chunks: chunk IDs are derived from namespace, offset and
// content, never generated randomly.
func (ix *Indexer) Index(ctx context.Context, ns domain.Namespace, doc *domain.Document) (int, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return 0, fmt.Errorf("index document %s: %w", doc.ID, domain.ErrEmptyDocument)
	}
	if ix.embedder == nil {
		return 0, fmt.Errorf("index document %s: %w", doc.ID, domain.ErrEmbeddingUnavailable)
	}

	chunks := ix.chunk(ns.ID, doc.Content)
	logger.Info("Indexing %s: %d chunks (size=%d overlap=%d)",
		doc.ID, len(chunks), ix.cfg.ChunkSize, ix.cfg.ChunkOverlap)

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	var vectors [][]float32
	err := withRetry(ctx, ix.cfg.PerCallMaxRetries, "embed chunks", func(ctx context.Context) error {
		var embedErr error
		vectors, embedErr = ix.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	err = withRetry(ctx, ix.cfg.PerCallMaxRetries, "upsert chunks", func(ctx context.Context) error {
		return ix.store.Upsert(ctx, ns.ID, chunks)
	})
	if err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}

	return len(chunks), nil
}

// chunk splits content into a sliding window of rune ranges. The last
// chunk may be shorter than ChunkSize.
func (ix *Indexer) chunk(namespaceID, content string) []domain.Chunk {
	runes := []rune(content)
	size := ix.cfg.ChunkSize
	step := size - ix.cfg.ChunkOverlap
	if step <= 0 {
		step = size
	}

	chunks := make([]domain.Chunk, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		text := string(runes[start:end])
		chunks = append(chunks, domain.Chunk{
			ID:          chunkID(namespaceID, start, text),
			NamespaceID: namespaceID,
			Content:     text,
			Span:        domain.Span{Start: start, End: end},
		})

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// chunkID derives a stable chunk identifier from namespace, offset and
// content, making upserts idempotent.
func chunkID(namespaceID string, start int, content string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", namespaceID, start, content)))
	return hex.EncodeToString(sum[:12])
}
