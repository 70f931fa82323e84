// Package dashscope provides a reranker adapter for the DashScope
// text-rerank API (gte-rerank models).
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// Ensure RerankerService implements the interface.
var _ driven.RerankerService = (*RerankerService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://dashscope.aliyuncs.com/api/v1"
	DefaultModel   = "gte-rerank-v2"
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond caps rerank call rate.
	DefaultRequestsPerSecond = 5
)

// Config holds configuration for the DashScope reranker.
type Config struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://dashscope.aliyuncs.com/api/v1).
	BaseURL string

	// Model is the rerank model to use (default: gte-rerank-v2).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond caps outgoing request rate (default: 5).
	RequestsPerSecond float64
}

// RerankerService scores query/document relevance via DashScope.
type RerankerService struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	model   string
}

// rerankRequest is the DashScope text-rerank request format.
type rerankRequest struct {
	Model string `json:"model"`
	Input struct {
		Query     string   `json:"query"`
		Documents []string `json:"documents"`
	} `json:"input"`
	Parameters struct {
		TopN            int  `json:"top_n,omitempty"`
		ReturnDocuments bool `json:"return_documents"`
	} `json:"parameters"`
}

// rerankResponse is the DashScope text-rerank response format.
type rerankResponse struct {
	Output struct {
		Results []struct {
			Index          int     `json:"index"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"results"`
	} `json:"output"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// NewRerankerService creates a new DashScope reranker.
func NewRerankerService(cfg Config) (*RerankerService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("dashscope: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &RerankerService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Rerank scores each candidate against the query and returns hits
// ordered by relevance, capped at topK.
func (s *RerankerService) Rerank(ctx context.Context, query string, candidates []string, topK int) ([]driven.RerankHit, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reqBody rerankRequest
	reqBody.Model = s.model
	reqBody.Input.Query = query
	reqBody.Input.Documents = candidates
	if topK > 0 {
		reqBody.Parameters.TopN = topK
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/services/rerank/text-rerank/text-rerank",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewTransientError(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, body)
	}

	var rerankResp rerankResponse
	if err := json.Unmarshal(body, &rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if rerankResp.Code != "" {
		return nil, fmt.Errorf("dashscope error %s: %s", rerankResp.Code, rerankResp.Message)
	}

	hits := make([]driven.RerankHit, 0, len(rerankResp.Output.Results))
	for _, r := range rerankResp.Output.Results {
		if r.Index < 0 || r.Index >= len(candidates) {
			return nil, fmt.Errorf("dashscope: result index %d out of range", r.Index)
		}
		hits = append(hits, driven.RerankHit{
			Index: r.Index,
			Score: r.RelevanceScore,
		})
	}
	return hits, nil
}

// ModelName returns the name of the rerank model being used.
func (s *RerankerService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *RerankerService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// classifyStatus wraps a non-200 response so the retry layer knows
// whether to back off or give up.
func classifyStatus(status int, body []byte) error {
	err := fmt.Errorf("dashscope error (status %d): %s", status, string(body))
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return domain.NewTransientError(err)
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest:
		return domain.NewPermanentError(err)
	default:
		return err
	}
}
