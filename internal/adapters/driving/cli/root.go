// Package cli implements the TenderLens command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/tenderlens/tenderlens-cli/internal/adapters/driven/config/file"
	"github.com/tenderlens/tenderlens-cli/internal/adapters/driven/docsource/file"
	"github.com/tenderlens/tenderlens-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/tenderlens/tenderlens-cli/internal/adapters/driven/llm/openai"
	"github.com/tenderlens/tenderlens-cli/internal/adapters/driven/reranker/dashscope"
	"github.com/tenderlens/tenderlens-cli/internal/adapters/driven/vectorstore/memory"
	vectorsqlite "github.com/tenderlens/tenderlens-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driving"
	"github.com/tenderlens/tenderlens-cli/internal/core/services"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verboseFlag bool

// Services wired by initServices and shared across commands.
var (
	configStore *configfile.ConfigStore
	docSource   driven.DocumentSource
	analyzer    driving.Analyzer

	// closers shut down provider clients and the vector store.
	closers []func() error
)

var rootCmd = &cobra.Command{
	Use:   "tenderlens",
	Short: "Analyze tender documents with retrieval-augmented extraction",
	Long: `TenderLens extracts structured information from tender documents.

A document is chunked, embedded and indexed into a vector store, then a
set of extraction agents retrieve relevant passages and pull out basic
information, scoring criteria and other important terms, each field
backed by a citation into the original text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}

// Execute runs the CLI.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// initServices builds the full pipeline from the configuration file.
// Commands that need the analyzer call this in their RunE.
func initServices() error {
	if analyzer != nil {
		return nil
	}

	var err error
	configStore, err = configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings := configStore.Settings()
	cfg := settings.PipelineConfig()

	store, err := openVectorStore(settings.Storage)
	if err != nil {
		return err
	}
	closers = append(closers, store.Close)

	embedder, err := openEmbedding(settings.Embedding)
	if err != nil {
		return err
	}
	closers = append(closers, embedder.Close)

	llm, err := openLLM(settings.LLM)
	if err != nil {
		return err
	}
	closers = append(closers, llm.Close)

	// The reranker is optional; retrieval falls back to similarity order.
	var reranker driven.RerankerService
	if cfg.EnableReranking && settings.Reranker.APIKey != "" {
		reranker, err = dashscope.NewRerankerService(dashscope.Config{
			APIKey:  settings.Reranker.APIKey,
			BaseURL: settings.Reranker.BaseURL,
			Model:   settings.Reranker.Model,
		})
		if err != nil {
			return fmt.Errorf("configure reranker: %w", err)
		}
		closers = append(closers, reranker.Close)
	}

	planner := services.NewRetrievalPlanner(store, embedder, llm, reranker, cfg)
	agents := services.DefaultAgents(planner, llm, cfg)

	orchestrator, err := services.NewOrchestrator(
		services.NewNamespaceManager(store),
		services.NewIndexer(store, embedder, cfg),
		agents,
		services.NewAggregator(),
		cfg,
	)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	docSource = file.NewSource()
	analyzer = orchestrator
	return nil
}

// openVectorStore selects the configured vector store backend.
func openVectorStore(s configfile.StorageSettings) (driven.VectorStore, error) {
	if s.Backend == "memory" {
		return memory.NewStore(), nil
	}
	store, err := vectorsqlite.NewStore(s.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return store, nil
}

// openEmbedding builds the embedding client from settings.
func openEmbedding(s configfile.EmbeddingSettings) (driven.EmbeddingService, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: set embedding.api_key with 'tenderlens config set'", domain.ErrEmbeddingUnavailable)
	}
	svc, err := openai.NewEmbeddingService(openai.Config{
		APIKey:     s.APIKey,
		BaseURL:    s.BaseURL,
		Model:      s.Model,
		Dimensions: s.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("configure embedding: %w", err)
	}
	return svc, nil
}

// openLLM builds the LLM client from settings.
func openLLM(s configfile.ProviderSettings) (driven.LLMService, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: set llm.api_key with 'tenderlens config set'", domain.ErrLLMUnavailable)
	}
	svc, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  s.APIKey,
		BaseURL: s.BaseURL,
		Model:   s.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("configure llm: %w", err)
	}
	return svc, nil
}

// closeServices shuts down everything initServices opened.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	closers = nil
}
