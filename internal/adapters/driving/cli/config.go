package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/tenderlens/tenderlens-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and edit the TenderLens configuration file.

Settings are grouped into sections: pipeline, embedding, llm, reranker
and storage. Keys use dotted notation, e.g. pipeline.chunk_size.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value and persists it immediately.

Examples:
  tenderlens config set llm.model qwen-plus
  tenderlens config set pipeline.chunk_size 800
  tenderlens config set pipeline.enable_reranking false`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key [provider]",
	Short: "Set a provider API key without echoing it",
	Long: `Prompts for an API key with terminal echo disabled and stores it
for the given provider: embedding, llm or reranker.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

// openConfigStore opens just the config store, without the pipeline.
func openConfigStore() (*configfile.ConfigStore, error) {
	if configStore != nil {
		return configStore, nil
	}
	store, err := configfile.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	configStore = store
	return store, nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	settings := store.Settings()
	cfg := settings.PipelineConfig()

	cmd.Printf("Configuration file: %s\n", store.Path())
	cmd.Println()

	cmd.Println("[pipeline]")
	cmd.Printf("  chunk_size: %d\n", cfg.ChunkSize)
	cmd.Printf("  chunk_overlap: %d\n", cfg.ChunkOverlap)
	cmd.Printf("  retrieval_k: %d\n", cfg.RetrievalK)
	cmd.Printf("  similarity_threshold: %.2f\n", cfg.SimilarityThreshold)
	cmd.Printf("  coverage_threshold: %.2f\n", cfg.CoverageThreshold)
	cmd.Printf("  enable_reranking: %t\n", cfg.EnableReranking)
	cmd.Printf("  enable_query_expansion: %t\n", cfg.EnableQueryExpansion)
	cmd.Printf("  enable_multi_round_retrieval: %t\n", cfg.EnableMultiRoundRetrieval)
	cmd.Printf("  isolation_mode: %s\n", cfg.IsolationMode)
	cmd.Printf("  workflow_timeout: %s\n", cfg.WorkflowTimeout)
	cmd.Println()

	printProvider(cmd, "embedding", settings.Embedding.ProviderSettings)
	printProvider(cmd, "llm", settings.LLM)
	printProvider(cmd, "reranker", settings.Reranker)

	cmd.Println("[storage]")
	backend := settings.Storage.Backend
	if backend == "" {
		backend = "sqlite"
	}
	cmd.Printf("  backend: %s\n", backend)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  data_dir: %s\n", settings.Storage.DataDir)
	}

	return nil
}

// printProvider shows one provider section with the key masked.
func printProvider(cmd *cobra.Command, name string, p configfile.ProviderSettings) {
	cmd.Printf("[%s]\n", name)
	if p.APIKey != "" {
		cmd.Printf("  api_key: %s\n", maskAPIKey(p.APIKey))
	} else {
		cmd.Printf("  api_key: (not set)\n")
	}
	if p.BaseURL != "" {
		cmd.Printf("  base_url: %s\n", p.BaseURL)
	}
	if p.Model != "" {
		cmd.Printf("  model: %s\n", p.Model)
	}
	cmd.Println()
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openConfigStore()
	if err != nil {
		return err
	}
	if err := store.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runConfigSetKey(cmd *cobra.Command, args []string) error {
	provider := args[0]
	switch provider {
	case "embedding", "llm", "reranker":
	default:
		return fmt.Errorf("unknown provider %q (expected embedding, llm or reranker)", provider)
	}

	store, err := openConfigStore()
	if err != nil {
		return err
	}

	cmd.Printf("API key for %s: ", provider)
	key := readSecret()
	cmd.Println()
	if key == "" {
		return fmt.Errorf("empty API key")
	}

	if err := store.Set(provider+".api_key", key); err != nil {
		return err
	}
	cmd.Printf("Stored API key for %s\n", provider)
	return nil
}

// readSecret reads a line without echo when stdin is a terminal,
// falling back to plain input otherwise.
func readSecret() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
