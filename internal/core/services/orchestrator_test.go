package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderlens/tenderlens-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// buildPipeline wires a full orchestrator over the given store and
// mocks. Pass nil llm to use a found-nothing default.
func buildPipeline(t *testing.T, store driven.VectorStore, embedder *mockEmbeddingService, llm *mockLLMService, cfg domain.Config) *Orchestrator {
	t.Helper()
	if llm == nil {
		llm = &mockLLMService{response: `{"found": false}`}
	}
	planner := NewRetrievalPlanner(store, embedder, nil, nil, cfg)
	orch, err := NewOrchestrator(
		NewNamespaceManager(store),
		NewIndexer(store, embedder, cfg),
		DefaultAgents(planner, llm, cfg),
		NewAggregator(),
		cfg,
	)
	require.NoError(t, err)
	return orch
}

func TestNewOrchestratorRejectsDuplicateFieldOwnership(t *testing.T) {
	cfg := fastConfig()
	fields := []FieldSpec{{Name: "project_name", Label: "项目名称", Query: "项目名称"}}
	agents := []*ExtractionAgent{
		NewExtractionAgent("a", "甲", fields, nil, nil, cfg),
		NewExtractionAgent("b", "乙", fields, nil, nil, cfg),
	}

	_, err := NewOrchestrator(NewNamespaceManager(newMockVectorStore()), nil, agents, NewAggregator(), cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "project_name")
}

func TestAnalyzeExtractsBudgetWithCitation(t *testing.T) {
	cfg := fastConfig()
	content := strings.Repeat("招标文件正文。", 50) +
		"预算金额：人民币500万元整。" +
		strings.Repeat("其他条款内容。", 50)

	store := memory.NewStore()
	embedder := &mockEmbeddingService{embedFunc: func(text string) []float32 {
		// Budget-related text and the budget query share a direction;
		// everything else is orthogonal.
		if strings.Contains(text, "预算") {
			return []float32{1, 0}
		}
		return []float32{0, 1}
	}}
	llm := &mockLLMService{
		generateFunc: func(prompt string) (string, error) {
			if strings.Contains(prompt, "提取目标: 预算金额") {
				return foundResponse("人民币500万元整", "预算金额：人民币500万元整"), nil
			}
			return `{"found": false}`, nil
		},
	}

	orch := buildPipeline(t, store, embedder, llm, cfg)
	doc := testDocument(content)

	report, err := orch.Analyze(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, orch.State())
	require.Len(t, report.Categories, 3)

	var budget *domain.ExtractionField
	for i := range report.Categories[0].Fields {
		if report.Categories[0].Fields[i].Name == "budget_amount" {
			budget = &report.Categories[0].Fields[i]
		}
	}
	require.NotNil(t, budget)
	assert.Equal(t, domain.FieldFound, budget.Status)
	assert.Contains(t, budget.Value, "500万元")

	// The citation span must point at the budget sentence in the original.
	require.NotNil(t, budget.Citation)
	runes := []rune(content)
	cited := string(runes[budget.Citation.Span.Start:budget.Citation.Span.End])
	assert.Equal(t, "预算金额：人民币500万元整", cited)
}

func TestAnalyzeEmptyDocumentFailsWithoutProviderCalls(t *testing.T) {
	store := newMockVectorStore()
	embedder := &mockEmbeddingService{}
	llm := &mockLLMService{}

	orch := buildPipeline(t, store, embedder, llm, fastConfig())

	report, err := orch.Analyze(context.Background(), testDocument("   \n  "))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
	assert.Nil(t, report)
	assert.Equal(t, domain.StateFailed, orch.State())
	assert.Equal(t, 0, embedder.calls())
	assert.Equal(t, 0, llm.calls())
}

func TestAnalyzeStoreOutageIsFatal(t *testing.T) {
	store := newMockVectorStore()
	store.pingErr = context.DeadlineExceeded

	orch := buildPipeline(t, store, &mockEmbeddingService{}, nil, fastConfig())

	report, err := orch.Analyze(context.Background(), testDocument("内容"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Nil(t, report)
	assert.Equal(t, domain.StateFailed, orch.State())
}

func TestAnalyzeAgentOutageDegradesReport(t *testing.T) {
	cfg := fastConfig()
	content := "项目名称：智慧城市建设项目。预算金额：人民币500万元整。评标方法：综合评分法。"

	store := memory.NewStore()
	embedder := &mockEmbeddingService{embedFunc: func(string) []float32 {
		return []float32{1, 0}
	}}
	// The scoring agent's extractions all fail permanently; the other two
	// agents answer normally.
	llm := &mockLLMService{
		generateFunc: func(prompt string) (string, error) {
			for _, spec := range scoringFields {
				if strings.Contains(prompt, "提取目标: "+spec.Label) {
					return "", domain.NewPermanentError(context.DeadlineExceeded)
				}
			}
			return `{"found": true, "value": "某个值", "source_text": "", "evidence": 1, "confidence": 0.8}`, nil
		},
	}

	orch := buildPipeline(t, store, embedder, llm, cfg)

	report, err := orch.Analyze(context.Background(), testDocument(content))

	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, orch.State())
	assert.Equal(t, domain.AgentSucceeded, report.Manifest["basic-info"])
	assert.Equal(t, domain.AgentFailed, report.Manifest["scoring-criteria"])
	assert.Equal(t, domain.AgentSucceeded, report.Manifest["other-terms"])

	// Failed agent's fields are all present as unavailable.
	require.Len(t, report.Categories, 3)
	for _, f := range report.Categories[1].Fields {
		assert.Equal(t, domain.FieldUnavailable, f.Status)
	}
}

func TestAnalyzeTimeoutStillProducesReport(t *testing.T) {
	cfg := fastConfig()
	cfg.WorkflowTimeout = 50 * time.Millisecond

	store := memory.NewStore()
	embedder := &mockEmbeddingService{embedFunc: func(string) []float32 {
		return []float32{1, 0}
	}}
	llm := &mockLLMService{
		generateFunc: func(string) (string, error) {
			// Slower than the workflow timeout.
			time.Sleep(5 * time.Millisecond)
			return `{"found": false}`, nil
		},
	}

	orch := buildPipeline(t, store, embedder, llm, cfg)

	start := time.Now()
	report, err := orch.Analyze(context.Background(), testDocument("一些需要分析的内容"))
	elapsed := time.Since(start)

	// The timeout degrades agents, it does not abort the pipeline.
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, domain.StateDone, orch.State())
	assert.Len(t, report.Categories, 3)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestAnalyzeIsDeterministicAcrossRuns(t *testing.T) {
	cfg := fastConfig()
	content := "项目名称：智慧城市建设项目。预算金额：人民币500万元整。"

	newOrch := func() *Orchestrator {
		store := memory.NewStore()
		embedder := &mockEmbeddingService{embedFunc: func(string) []float32 {
			return []float32{1, 0}
		}}
		llm := &mockLLMService{
			generateFunc: func(prompt string) (string, error) {
				if strings.Contains(prompt, "提取目标: 项目名称") {
					return foundResponse("智慧城市建设项目", "项目名称：智慧城市建设项目"), nil
				}
				return `{"found": false}`, nil
			},
		}
		return buildPipeline(t, store, embedder, llm, cfg)
	}

	first, err := newOrch().Analyze(context.Background(), testDocument(content))
	require.NoError(t, err)
	second, err := newOrch().Analyze(context.Background(), testDocument(content))
	require.NoError(t, err)

	// Identical inputs and providers yield identical reports, timestamp aside.
	assert.Equal(t, first.Categories, second.Categories)
	assert.Equal(t, first.Manifest, second.Manifest)
}

func TestStateObservableDuringLifecycle(t *testing.T) {
	orch := buildPipeline(t, newMockVectorStore(), &mockEmbeddingService{}, nil, fastConfig())

	assert.Equal(t, domain.StateInit, orch.State())

	_, err := orch.Analyze(context.Background(), testDocument("内容"))
	require.NoError(t, err)
	assert.Equal(t, domain.StateDone, orch.State())
}
