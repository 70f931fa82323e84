package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// ProviderSettings configures one external API provider.
type ProviderSettings struct {
	// APIKey authenticates requests. Required for the provider to be used.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	ProviderSettings
	// Dimensions overrides the embedding dimension where supported.
	Dimensions int `toml:"dimensions"`
}

// StorageSettings configures where chunks and vectors live.
type StorageSettings struct {
	// Backend selects the vector store: "sqlite" (default) or "memory".
	Backend string `toml:"backend"`

	// DataDir is where the sqlite backend keeps its database.
	// Defaults to ~/.tenderlens/data.
	DataDir string `toml:"data_dir"`
}

// pipelineSettings mirrors domain.Config with a TOML-friendly timeout.
type pipelineSettings struct {
	ChunkSize                 int     `toml:"chunk_size"`
	ChunkOverlap              int     `toml:"chunk_overlap"`
	RetrievalK                int     `toml:"retrieval_k"`
	SimilarityThreshold       float64 `toml:"similarity_threshold"`
	EnableReranking           *bool   `toml:"enable_reranking"`
	RerankTopK                int     `toml:"rerank_top_k"`
	RerankFinalK              int     `toml:"rerank_final_k"`
	EnableQueryExpansion      *bool   `toml:"enable_query_expansion"`
	MaxExpansions             int     `toml:"max_expansions"`
	EnableMultiRoundRetrieval *bool   `toml:"enable_multi_round_retrieval"`
	MaxRetrievalRounds        int     `toml:"max_retrieval_rounds"`
	CoverageThreshold         float64 `toml:"coverage_threshold"`
	IsolationMode             string  `toml:"isolation_mode"`
	WorkflowTimeoutSecs       int     `toml:"workflow_timeout_secs"`
	PerCallMaxRetries         int     `toml:"per_call_max_retries"`
	AgentConcurrency          int     `toml:"agent_concurrency"`
	FieldConcurrency          int     `toml:"field_concurrency"`
}

// Settings is the full configuration file shape.
type Settings struct {
	Pipeline  pipelineSettings  `toml:"pipeline"`
	Embedding EmbeddingSettings `toml:"embedding"`
	LLM       ProviderSettings  `toml:"llm"`
	Reranker  ProviderSettings  `toml:"reranker"`
	Storage   StorageSettings   `toml:"storage"`
}

// PipelineConfig converts the file settings into a normalised pipeline
// configuration. Absent keys fall back to defaults.
func (s *Settings) PipelineConfig() domain.Config {
	p := s.Pipeline
	cfg := domain.Config{
		ChunkSize:           p.ChunkSize,
		ChunkOverlap:        p.ChunkOverlap,
		RetrievalK:          p.RetrievalK,
		SimilarityThreshold: p.SimilarityThreshold,
		RerankTopK:          p.RerankTopK,
		RerankFinalK:        p.RerankFinalK,
		MaxExpansions:       p.MaxExpansions,
		MaxRetrievalRounds:  p.MaxRetrievalRounds,
		CoverageThreshold:   p.CoverageThreshold,
		IsolationMode:       domain.IsolationMode(p.IsolationMode),
		WorkflowTimeout:     time.Duration(p.WorkflowTimeoutSecs) * time.Second,
		PerCallMaxRetries:   p.PerCallMaxRetries,
		AgentConcurrency:    p.AgentConcurrency,
		FieldConcurrency:    p.FieldConcurrency,
	}

	// Booleans default to enabled; a pointer distinguishes "absent" from
	// an explicit false.
	cfg.EnableReranking = p.EnableReranking == nil || *p.EnableReranking
	cfg.EnableQueryExpansion = p.EnableQueryExpansion == nil || *p.EnableQueryExpansion
	cfg.EnableMultiRoundRetrieval = p.EnableMultiRoundRetrieval == nil || *p.EnableMultiRoundRetrieval

	return cfg.Normalise()
}

// ConfigStore reads and writes the TenderLens configuration file.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	settings Settings
}

// NewConfigStore opens the config store. If configDir is empty,
// defaults to ~/.tenderlens.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".tenderlens")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads configuration from the TOML file. A missing file is fine;
// the store starts with empty settings.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.settings = Settings{}
			return nil
		}
		return err
	}

	var loaded Settings
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}

	s.settings = loaded
	return nil
}

// Settings returns a copy of the current settings.
func (s *ConfigStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set assigns a dotted key like "llm.api_key" or "pipeline.chunk_size"
// and persists immediately. Values are parsed as bool, then number,
// then kept as string.
func (s *ConfigStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("%w: key %q must be section.name", domain.ErrInvalidInput, key)
	}

	// Round-trip through a raw map so unknown keys are rejected by the
	// strict decode below rather than silently dropped.
	raw := make(map[string]any)
	if data, err := toml.Marshal(s.settings); err == nil {
		_ = toml.Unmarshal(data, &raw)
	}

	section, ok := raw[parts[0]].(map[string]any)
	if !ok {
		section = make(map[string]any)
		raw[parts[0]] = section
	}
	section[parts[1]] = parseValue(value)

	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var updated Settings
	dec := toml.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&updated); err != nil {
		return fmt.Errorf("%w: unknown or mistyped key %q", domain.ErrInvalidInput, key)
	}

	// Write with restricted permissions; the file holds API keys.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	s.settings = updated
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// parseValue coerces a CLI string into the closest TOML type.
func parseValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
