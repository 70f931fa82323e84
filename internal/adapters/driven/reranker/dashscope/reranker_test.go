package dashscope

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *RerankerService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewRerankerService(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)
	return svc
}

func TestRerankReturnsScoredHits(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/rerank/text-rerank/text-rerank", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "预算金额", req.Input.Query)
		assert.Len(t, req.Input.Documents, 3)
		assert.Equal(t, 2, req.Parameters.TopN)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"output": {"results": [
			{"index": 2, "relevance_score": 0.95},
			{"index": 0, "relevance_score": 0.40}
		]}}`))
	})

	hits, err := svc.Rerank(context.Background(), "预算金额", []string{"a", "b", "c"}, 2)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 2, hits[0].Index)
	assert.InDelta(t, 0.95, hits[0].Score, 0.001)
	assert.Equal(t, 0, hits[1].Index)
}

func TestRerankEmptyCandidates(t *testing.T) {
	svc := newTestService(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty candidates")
	})

	hits, err := svc.Rerank(context.Background(), "q", nil, 5)

	require.NoError(t, err)
	assert.Nil(t, hits)
}

func TestRerankAPIErrorCode(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": "InvalidParameter", "message": "bad model"}`))
	})

	_, err := svc.Rerank(context.Background(), "q", []string{"a"}, 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidParameter")
}

func TestRerankRateLimitIsTransient(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Rerank(context.Background(), "q", []string{"a"}, 1)

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestRerankAuthErrorIsPermanent(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.Rerank(context.Background(), "q", []string{"a"}, 1)

	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
}

func TestRerankOutOfRangeIndex(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"output": {"results": [{"index": 9, "relevance_score": 0.9}]}}`))
	})

	_, err := svc.Rerank(context.Background(), "q", []string{"a"}, 1)

	assert.Error(t, err)
}

func TestNewRerankerServiceRequiresAPIKey(t *testing.T) {
	_, err := NewRerankerService(Config{})

	assert.Error(t, err)
}
