package domain

import "time"

// Config holds every knob the analysis pipeline recognises.
// Defaults are resolved once at startup via DefaultConfig; components
// receive the value in their constructors and never read ambient state.
type Config struct {
	// ChunkSize is the chunk length in runes.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in runes.
	ChunkOverlap int `toml:"chunk_overlap"`

	// RetrievalK is the number of hits requested per similarity search.
	RetrievalK int `toml:"retrieval_k"`

	// SimilarityThreshold drops hits scoring below it.
	SimilarityThreshold float64 `toml:"similarity_threshold"`

	// EnableReranking toggles the reranker pass.
	EnableReranking bool `toml:"enable_reranking"`

	// RerankTopK caps the candidate pool handed to the reranker.
	RerankTopK int `toml:"rerank_top_k"`

	// RerankFinalK is the number of results kept after reranking.
	RerankFinalK int `toml:"rerank_final_k"`

	// EnableQueryExpansion toggles LLM query expansion.
	EnableQueryExpansion bool `toml:"enable_query_expansion"`

	// MaxExpansions bounds the number of query variants, original included.
	MaxExpansions int `toml:"max_expansions"`

	// EnableMultiRoundRetrieval toggles escalation to further rounds when
	// the first round does not cover the field.
	EnableMultiRoundRetrieval bool `toml:"enable_multi_round_retrieval"`

	// MaxRetrievalRounds bounds retrieval rounds per field.
	MaxRetrievalRounds int `toml:"max_retrieval_rounds"`

	// CoverageThreshold is the similarity score at which a round is
	// considered to cover the field, stopping multi-round escalation early.
	CoverageThreshold float64 `toml:"coverage_threshold"`

	// IsolationMode controls namespace clearing between documents.
	IsolationMode IsolationMode `toml:"isolation_mode"`

	// WorkflowTimeout bounds total pipeline wall-clock time.
	WorkflowTimeout time.Duration `toml:"workflow_timeout"`

	// PerCallMaxRetries is the retry budget for each provider call.
	PerCallMaxRetries int `toml:"per_call_max_retries"`

	// AgentConcurrency bounds how many extraction agents run in parallel.
	AgentConcurrency int `toml:"agent_concurrency"`

	// FieldConcurrency bounds concurrent field extractions within one agent.
	FieldConcurrency int `toml:"field_concurrency"`
}

// Default configuration values.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultRetrievalK          = 5
	DefaultSimilarityThreshold = 0.5
	DefaultRerankTopK          = 15
	DefaultRerankFinalK        = 8
	DefaultMaxExpansions       = 5
	DefaultMaxRetrievalRounds  = 2
	DefaultCoverageThreshold   = 0.65
	DefaultWorkflowTimeout     = 10 * time.Minute
	DefaultPerCallMaxRetries   = 3
	DefaultAgentConcurrency    = 3
	DefaultFieldConcurrency    = 2
)

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:                 DefaultChunkSize,
		ChunkOverlap:              DefaultChunkOverlap,
		RetrievalK:                DefaultRetrievalK,
		SimilarityThreshold:       DefaultSimilarityThreshold,
		EnableReranking:           true,
		RerankTopK:                DefaultRerankTopK,
		RerankFinalK:              DefaultRerankFinalK,
		EnableQueryExpansion:      true,
		MaxExpansions:             DefaultMaxExpansions,
		EnableMultiRoundRetrieval: true,
		MaxRetrievalRounds:        DefaultMaxRetrievalRounds,
		CoverageThreshold:         DefaultCoverageThreshold,
		IsolationMode:             IsolationIsolated,
		WorkflowTimeout:           DefaultWorkflowTimeout,
		PerCallMaxRetries:         DefaultPerCallMaxRetries,
		AgentConcurrency:          DefaultAgentConcurrency,
		FieldConcurrency:          DefaultFieldConcurrency,
	}
}

// Normalise fills zero values with defaults and clamps nonsensical
// settings so the pipeline never divides by zero or loops forever.
func (c Config) Normalise() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 4
	}
	if c.RetrievalK <= 0 {
		c.RetrievalK = d.RetrievalK
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	if c.RerankTopK <= 0 {
		c.RerankTopK = d.RerankTopK
	}
	if c.RerankFinalK <= 0 {
		c.RerankFinalK = d.RerankFinalK
	}
	if c.MaxExpansions <= 0 {
		c.MaxExpansions = d.MaxExpansions
	}
	if c.MaxRetrievalRounds <= 0 {
		c.MaxRetrievalRounds = d.MaxRetrievalRounds
	}
	if c.CoverageThreshold <= 0 {
		c.CoverageThreshold = d.CoverageThreshold
	}
	if !c.IsolationMode.Valid() {
		c.IsolationMode = d.IsolationMode
	}
	if c.WorkflowTimeout <= 0 {
		c.WorkflowTimeout = d.WorkflowTimeout
	}
	if c.PerCallMaxRetries <= 0 {
		c.PerCallMaxRetries = d.PerCallMaxRetries
	}
	if c.AgentConcurrency <= 0 {
		c.AgentConcurrency = d.AgentConcurrency
	}
	if c.FieldConcurrency <= 0 {
		c.FieldConcurrency = d.FieldConcurrency
	}
	return c
}
