package services

import (
	"context"
	"strings"
	"sync"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockVectorStore implements driven.VectorStore for testing.
type mockVectorStore struct {
	mu sync.Mutex

	namespaces map[string]map[string]domain.Chunk
	hits       []driven.VectorHit

	pingErr   error
	upsertErr error
	queryErr  error
	clearErr  error

	upsertCalls int
	queryCalls  int
	clearCalls  []string
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{namespaces: make(map[string]map[string]domain.Chunk)}
}

func (m *mockVectorStore) Upsert(_ context.Context, namespaceID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	ns, ok := m.namespaces[namespaceID]
	if !ok {
		ns = make(map[string]domain.Chunk)
		m.namespaces[namespaceID] = ns
	}
	for _, c := range chunks {
		ns[c.ID] = c
	}
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, _ string, _ []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k > 0 && k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockVectorStore) Clear(_ context.Context, namespaceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	m.clearCalls = append(m.clearCalls, namespaceID)
	delete(m.namespaces, namespaceID)
	return nil
}

func (m *mockVectorStore) Ping(_ context.Context) error { return m.pingErr }

func (m *mockVectorStore) Close() error { return nil }

func (m *mockVectorStore) count(namespaceID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.namespaces[namespaceID])
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Embeddings are deterministic in the input text so re-indexing the same
// content always yields the same vectors.
type mockEmbeddingService struct {
	mu sync.Mutex

	embedErr error
	// embedFunc overrides vector generation when set.
	embedFunc func(text string) []float32

	batchCalls int
	batchSizes []int
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	if m.embedFunc != nil {
		return m.embedFunc(text)
	}
	// Cheap deterministic direction from the text length.
	if len(text)%2 == 0 {
		return []float32{1, 0}
	}
	return []float32{0.8, 0.6}
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	m.mu.Unlock()
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = m.vector(t)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return 2 }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

func (m *mockEmbeddingService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls
}

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	mu sync.Mutex

	// generateFunc decides the response per prompt. When nil, response
	// and generateErr are returned verbatim.
	generateFunc func(prompt string) (string, error)
	response     string
	generateErr  error

	generateCalls int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.generateCalls++
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(prompt)
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return m.response, nil
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

func (m *mockLLMService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

// mockRerankerService implements driven.RerankerService for testing.
type mockRerankerService struct {
	mu sync.Mutex

	// rerankFunc decides the result per call. When nil, candidates keep
	// their order with descending scores.
	rerankFunc func(query string, candidates []string, topK int) ([]driven.RerankHit, error)
	rerankErr  error

	rerankCalls int
	lastPool    []string
}

func (m *mockRerankerService) Rerank(_ context.Context, query string, candidates []string, topK int) ([]driven.RerankHit, error) {
	m.mu.Lock()
	m.rerankCalls++
	m.lastPool = candidates
	m.mu.Unlock()
	if m.rerankFunc != nil {
		return m.rerankFunc(query, candidates, topK)
	}
	if m.rerankErr != nil {
		return nil, m.rerankErr
	}
	n := len(candidates)
	if topK > 0 && topK < n {
		n = topK
	}
	hits := make([]driven.RerankHit, n)
	for i := range hits {
		hits[i] = driven.RerankHit{Index: i, Score: 1 - float64(i)*0.1}
	}
	return hits, nil
}

func (m *mockRerankerService) ModelName() string { return "mock-rerank" }

func (m *mockRerankerService) Close() error { return nil }

// --- Shared test helpers ---

// fastConfig is a normalised config with retries and optional passes
// trimmed down for unit tests.
func fastConfig() domain.Config {
	cfg := domain.DefaultConfig()
	cfg.PerCallMaxRetries = 1
	cfg.EnableQueryExpansion = false
	cfg.EnableMultiRoundRetrieval = false
	cfg.EnableReranking = false
	return cfg.Normalise()
}

// foundResponse builds a minimal successful extraction response.
func foundResponse(value, sourceText string) string {
	var b strings.Builder
	b.WriteString(`{"found": true, "value": "`)
	b.WriteString(value)
	b.WriteString(`", "source_text": "`)
	b.WriteString(sourceText)
	b.WriteString(`", "evidence": 1, "confidence": 0.9}`)
	return b.String()
}
