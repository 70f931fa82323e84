package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// FieldSpec declares one extraction field owned by an agent: the field
// name, its display label, and the retrieval query that serves it.
type FieldSpec struct {
	// Name is the field identifier, unique across all agents.
	Name string

	// Label is the human-readable description used in prompts and reports.
	Label string

	// Query is the retrieval query issued for this field.
	Query string

	// Hint is optional extra extraction guidance for the LLM.
	Hint string
}

// ExtractionAgent is a domain-scoped worker owning a fixed field list.
// Per field it retrieves evidence through the planner and turns it into
// a typed, cited value with one structured LLM call. Agents never read
// evidence outside what the planner returns.
type ExtractionAgent struct {
	name     string
	category string
	fields   []FieldSpec
	planner  *RetrievalPlanner
	llm      driven.LLMService
	cfg      domain.Config
}

// NewExtractionAgent creates an agent for the given field domain.
func NewExtractionAgent(
	name, category string,
	fields []FieldSpec,
	planner *RetrievalPlanner,
	llm driven.LLMService,
	cfg domain.Config,
) *ExtractionAgent {
	return &ExtractionAgent{
		name:     name,
		category: category,
		fields:   fields,
		planner:  planner,
		llm:      llm,
		cfg:      cfg,
	}
}

// Name returns the agent's name.
func (a *ExtractionAgent) Name() string { return a.name }

// Category returns the agent's report section title.
func (a *ExtractionAgent) Category() string { return a.category }

// FieldNames returns the field names the agent owns, in declaration order.
func (a *ExtractionAgent) FieldNames() []string {
	names := make([]string, len(a.fields))
	for i, f := range a.fields {
		names[i] = f.Name
	}
	return names
}

// FieldSpecs returns the agent's field declarations.
func (a *ExtractionAgent) FieldSpecs() []FieldSpec { return a.fields }

// Extract runs every field, several at a time up to FieldConcurrency.
// A single field's failure never blocks the agent's other fields.
//
// The returned error is non-nil only on total failure (every field
// unavailable); the partial result is valid either way.
func (a *ExtractionAgent) Extract(ctx context.Context, ns domain.Namespace) (domain.PartialExtractionResult, error) {
	logger.Section("Agent " + a.name)

	results := make([]domain.ExtractionField, len(a.fields))
	for i, spec := range a.fields {
		results[i] = domain.ExtractionField{
			Name:   spec.Name,
			Label:  spec.Label,
			Status: domain.FieldUnavailable,
		}
	}

	sem := make(chan struct{}, a.cfg.FieldConcurrency)
	var wg sync.WaitGroup
	for i, spec := range a.fields {
		wg.Add(1)
		go func(i int, spec FieldSpec) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Cancelled before starting; field stays unavailable.
				return
			}
			results[i] = a.extractField(ctx, ns, spec)
		}(i, spec)
	}
	wg.Wait()

	partial := domain.PartialExtractionResult{
		Agent:    a.name,
		Category: a.category,
		Fields:   results,
	}

	unavailable := 0
	for _, f := range results {
		if f.Status == domain.FieldUnavailable {
			unavailable++
		}
	}
	if unavailable == len(results) && len(results) > 0 {
		return partial, fmt.Errorf("agent %s: %w", a.name, domain.ErrAgentFailed)
	}
	return partial, nil
}

// extractionSchema is the JSON shape requested from the LLM per field.
type extractionSchema struct {
	Found      bool    `json:"found"`
	Value      string  `json:"value"`
	SourceText string  `json:"source_text"`
	Evidence   int     `json:"evidence"`
	Confidence float64 `json:"confidence"`
}

// extractField resolves a single field: retrieve evidence, then one
// structured LLM call. Any irrecoverable failure leaves the field
// unavailable without affecting sibling fields.
func (a *ExtractionAgent) extractField(ctx context.Context, ns domain.Namespace, spec FieldSpec) domain.ExtractionField {
	field := domain.ExtractionField{
		Name:   spec.Name,
		Label:  spec.Label,
		Status: domain.FieldUnavailable,
	}

	evidence, err := a.planner.Retrieve(ctx, ns, domain.Query{Field: spec.Name, Text: spec.Query})
	if err != nil {
		logger.Warn("Agent %s: retrieval failed for %s: %v", a.name, spec.Name, err)
		return field
	}
	if len(evidence) == 0 {
		field.Status = domain.FieldNotFound
		return field
	}

	if a.llm == nil {
		logger.Warn("Agent %s: no LLM service, cannot extract %s", a.name, spec.Name)
		return field
	}

	prompt := extractionPrompt(spec, evidence)
	var response string
	err = withRetry(ctx, a.cfg.PerCallMaxRetries, "extract "+spec.Name, func(ctx context.Context) error {
		var genErr error
		response, genErr = a.llm.Generate(ctx, prompt, driven.GenerateOptions{
			MaxTokens:   1024,
			Temperature: 0.1,
		})
		return genErr
	})
	if err != nil {
		logger.Warn("Agent %s: extraction failed for %s: %v", a.name, spec.Name, err)
		return field
	}

	var parsed extractionSchema
	if err := json.Unmarshal([]byte(extractJSON(response)), &parsed); err != nil {
		logger.Warn("Agent %s: unparseable extraction for %s: %v", a.name, spec.Name, err)
		return field
	}

	if !parsed.Found || strings.TrimSpace(parsed.Value) == "" {
		field.Status = domain.FieldNotFound
		return field
	}

	field.Value = strings.TrimSpace(parsed.Value)
	field.Confidence = parsed.Confidence
	field.Citation = citationFor(evidence, parsed)
	field.Status = domain.FieldFound
	return field
}

// extractionPrompt builds the structured-extraction prompt from the
// retrieved evidence. The LLM must choose its citation from the numbered
// evidence, or answer not-found explicitly.
func extractionPrompt(spec FieldSpec, evidence []domain.RerankedResult) string {
	var b strings.Builder
	b.WriteString("你是一个专业的招投标文件分析专家。请从以下文档片段中提取信息。\n\n")
	b.WriteString("提取目标: ")
	b.WriteString(spec.Label)
	if spec.Hint != "" {
		b.WriteString("（")
		b.WriteString(spec.Hint)
		b.WriteString("）")
	}
	b.WriteString("\n\n文档片段：\n")
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, ev.Content)
	}
	b.WriteString(`请严格按照以下JSON格式返回，不要输出其他内容：
{"found": true, "value": "提取的值", "source_text": "支持该值的原文片段", "evidence": 片段编号, "confidence": 0.9}

注意事项：
1. 严格忠于原文，不要添加任何主观判断
2. source_text 必须是所引用片段中的原文
3. 如果文档片段中未找到该信息，返回 {"found": false}
`)
	return b.String()
}

// citationFor resolves the citation to the evidence chunk the LLM named,
// narrowing the span to the cited source text when it can be located.
func citationFor(evidence []domain.RerankedResult, parsed extractionSchema) *domain.Citation {
	idx := parsed.Evidence - 1
	if idx < 0 || idx >= len(evidence) {
		idx = 0
	}
	chunk := evidence[idx]

	citation := &domain.Citation{
		ChunkID: chunk.ChunkID,
		Span:    chunk.Span,
		Text:    parsed.SourceText,
	}

	source := strings.TrimSpace(parsed.SourceText)
	if source == "" {
		citation.Text = chunk.Content
		return citation
	}

	// Prefer the chunk that actually contains the cited text; the LLM
	// occasionally numbers the wrong fragment.
	for _, ev := range append([]domain.RerankedResult{chunk}, evidence...) {
		if byteIdx := strings.Index(ev.Content, source); byteIdx >= 0 {
			start := ev.Span.Start + utf8.RuneCountInString(ev.Content[:byteIdx])
			citation.ChunkID = ev.ChunkID
			citation.Span = domain.Span{
				Start: start,
				End:   start + utf8.RuneCountInString(source),
			}
			break
		}
	}

	return citation
}
