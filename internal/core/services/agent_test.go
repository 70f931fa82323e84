package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// evidenceStore returns one strong hit for every query.
func evidenceStore(content string) *mockVectorStore {
	store := newMockVectorStore()
	store.hits = []driven.VectorHit{
		{
			Chunk: domain.Chunk{
				ID:          "chunk-1",
				NamespaceID: "ns",
				Content:     content,
				Span:        domain.Span{Start: 0, End: len([]rune(content))},
			},
			Similarity: 0.9,
		},
	}
	return store
}

func testFields() []FieldSpec {
	return []FieldSpec{
		{Name: "project_name", Label: "项目名称", Query: "项目名称"},
		{Name: "budget_amount", Label: "预算金额", Query: "预算金额"},
	}
}

func newTestAgent(store *mockVectorStore, llm driven.LLMService, cfg domain.Config) *ExtractionAgent {
	planner := NewRetrievalPlanner(store, &mockEmbeddingService{}, nil, nil, cfg)
	return NewExtractionAgent("basic-info", "基础信息", testFields(), planner, llm, cfg)
}

func TestExtractFindsFieldsWithCitations(t *testing.T) {
	content := "项目名称：智慧城市建设项目。预算金额：人民币500万元整。"
	llm := &mockLLMService{
		generateFunc: func(prompt string) (string, error) {
			// The extraction target line names the field being asked for.
			if strings.Contains(prompt, "提取目标: 预算金额") {
				return foundResponse("人民币500万元整", "预算金额：人民币500万元整"), nil
			}
			return foundResponse("智慧城市建设项目", "项目名称：智慧城市建设项目"), nil
		},
	}
	agent := newTestAgent(evidenceStore(content), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	require.Len(t, partial.Fields, 2)

	budget := partial.Fields[1]
	assert.Equal(t, "budget_amount", budget.Name)
	assert.Equal(t, domain.FieldFound, budget.Status)
	assert.Equal(t, "人民币500万元整", budget.Value)
	assert.InDelta(t, 0.9, budget.Confidence, 0.001)
	require.NotNil(t, budget.Citation)
	assert.Equal(t, "chunk-1", budget.Citation.ChunkID)
	assert.Equal(t, "预算金额：人民币500万元整", budget.Citation.Text)
}

func TestExtractCitationSpanCoversSourceText(t *testing.T) {
	content := "项目名称：智慧城市建设项目。预算金额：人民币500万元整。"
	source := "预算金额：人民币500万元整"
	llm := &mockLLMService{response: foundResponse("人民币500万元整", source)}

	cfg := fastConfig()
	planner := NewRetrievalPlanner(evidenceStore(content), &mockEmbeddingService{}, nil, nil, cfg)
	agent := NewExtractionAgent("basic-info", "基础信息",
		[]FieldSpec{{Name: "budget_amount", Label: "预算金额", Query: "预算金额"}},
		planner, llm, cfg)

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	field := partial.Fields[0]
	require.NotNil(t, field.Citation)

	// The span must be the exact rune range of the cited text.
	runes := []rune(content)
	start := strings.Index(content, source)
	wantStart := len([]rune(content[:start]))
	assert.Equal(t, wantStart, field.Citation.Span.Start)
	assert.Equal(t, wantStart+len([]rune(source)), field.Citation.Span.End)
	assert.Equal(t, source, string(runes[field.Citation.Span.Start:field.Citation.Span.End]))
}

func TestExtractFieldFailureDoesNotBlockSiblings(t *testing.T) {
	content := "项目名称：智慧城市建设项目。"
	llm := &mockLLMService{
		generateFunc: func(prompt string) (string, error) {
			if strings.Contains(prompt, "预算金额") {
				return "", domain.NewPermanentError(errors.New("model refused"))
			}
			return foundResponse("智慧城市建设项目", "项目名称：智慧城市建设项目"), nil
		},
	}
	agent := newTestAgent(evidenceStore(content), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	assert.Equal(t, domain.FieldFound, partial.Fields[0].Status)
	assert.Equal(t, domain.FieldUnavailable, partial.Fields[1].Status)
}

func TestExtractTotalFailureReturnsAgentFailed(t *testing.T) {
	llm := &mockLLMService{generateErr: domain.NewPermanentError(errors.New("model down"))}
	agent := newTestAgent(evidenceStore("一些内容"), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAgentFailed)
	// The partial result is still valid and fully populated.
	require.Len(t, partial.Fields, 2)
	for _, f := range partial.Fields {
		assert.Equal(t, domain.FieldUnavailable, f.Status)
	}
}

func TestExtractEmptyEvidenceMeansNotFound(t *testing.T) {
	llm := &mockLLMService{}
	agent := newTestAgent(newMockVectorStore(), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	for _, f := range partial.Fields {
		assert.Equal(t, domain.FieldNotFound, f.Status)
	}
	// Nothing retrieved, so no extraction calls were made.
	assert.Equal(t, 0, llm.calls())
}

func TestExtractNotFoundResponse(t *testing.T) {
	llm := &mockLLMService{response: `{"found": false}`}
	agent := newTestAgent(evidenceStore("无关内容"), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	for _, f := range partial.Fields {
		assert.Equal(t, domain.FieldNotFound, f.Status)
		assert.Nil(t, f.Citation)
	}
}

func TestExtractUnparseableResponseLeavesFieldUnavailable(t *testing.T) {
	llm := &mockLLMService{
		generateFunc: func(prompt string) (string, error) {
			if strings.Contains(prompt, "预算金额") {
				return "完全不是JSON的回答", nil
			}
			return foundResponse("智慧城市建设项目", ""), nil
		},
	}
	agent := newTestAgent(evidenceStore("项目名称：智慧城市建设项目"), llm, fastConfig())

	partial, err := agent.Extract(context.Background(), testNamespace())

	require.NoError(t, err)
	assert.Equal(t, domain.FieldFound, partial.Fields[0].Status)
	assert.Equal(t, domain.FieldUnavailable, partial.Fields[1].Status)
}

func TestDefaultAgentsPartitionFields(t *testing.T) {
	agents := DefaultAgents(nil, nil, fastConfig())

	require.Len(t, agents, 3)
	assert.Equal(t, "basic-info", agents[0].Name())
	assert.Equal(t, "scoring-criteria", agents[1].Name())
	assert.Equal(t, "other-terms", agents[2].Name())

	seen := make(map[string]string)
	for _, agent := range agents {
		for _, name := range agent.FieldNames() {
			owner, taken := seen[name]
			assert.False(t, taken, "field %s owned by both %s and %s", name, owner, agent.Name())
			seen[name] = agent.Name()
		}
	}
	assert.Len(t, seen, 21)
}
