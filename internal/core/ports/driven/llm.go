package driven

import "context"

// LLMService provides language model completions for query expansion and
// structured field extraction.
//
// Implementations may include:
//   - OpenAI (GPT-4o family)
//   - DashScope (qwen family)
//   - Any OpenAI-compatible inference server
type LLMService interface {
	// Generate produces a text completion from a prompt. Callers that
	// need structured output embed the schema in the prompt and parse
	// the response themselves.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
