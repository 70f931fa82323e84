package domain

import "time"

// FieldStatus describes the outcome of extracting one field.
type FieldStatus string

const (
	// FieldFound means a value was extracted with a supporting citation.
	FieldFound FieldStatus = "found"

	// FieldNotFound means the document does not mention the field.
	// This is a valid outcome, not an error.
	FieldNotFound FieldStatus = "not_found"

	// FieldUnavailable means extraction failed irrecoverably for this
	// field (retries exhausted, agent cancelled, agent crashed).
	FieldUnavailable FieldStatus = "unavailable"
)

// Citation points an extracted value back to its source text.
type Citation struct {
	// ChunkID is the evidence chunk the value was extracted from.
	ChunkID string

	// Span is the source range of the cited text within the document.
	Span Span

	// Text is the cited source text.
	Text string
}

// ExtractionField is one typed, cited value produced by an extraction agent.
type ExtractionField struct {
	// Name is the field identifier, unique across all agents.
	Name string

	// Label is the human-readable field description.
	Label string

	// Value is the extracted value. Empty unless Status is FieldFound.
	Value string

	// Citation is the provenance of Value. Nil unless Status is FieldFound.
	Citation *Citation

	// Confidence is the extraction confidence (0-1).
	Confidence float64

	// Status is the extraction outcome.
	Status FieldStatus
}

// AgentStatus describes the outcome of one extraction agent.
type AgentStatus string

const (
	// AgentSucceeded means every field resolved to found or not_found.
	AgentSucceeded AgentStatus = "succeeded"

	// AgentPartial means some fields resolved but others are unavailable.
	AgentPartial AgentStatus = "partial"

	// AgentFailed means the agent failed for every field, or never returned.
	AgentFailed AgentStatus = "failed"
)

// PartialExtractionResult is the ordered field list produced by one agent.
// It never contains fields outside the agent's declared domain.
type PartialExtractionResult struct {
	// Agent is the producing agent's name.
	Agent string

	// Category is the human-readable category title for rendering.
	Category string

	// Fields are the extracted fields in declaration order.
	Fields []ExtractionField
}

// CategoryResult is one agent's section within the aggregated report.
type CategoryResult struct {
	// Agent is the owning agent's name.
	Agent string

	// Category is the section title.
	Category string

	// Fields are the category's fields in declaration order.
	Fields []ExtractionField
}

// AggregatedReport is the union of all agents' partial results, created
// once at pipeline completion. It is immutable after aggregation.
type AggregatedReport struct {
	// DocumentID identifies the analysed document.
	DocumentID string

	// DocumentTitle is the document's display title.
	DocumentTitle string

	// GeneratedAt is when aggregation ran.
	GeneratedAt time.Time

	// Categories hold each agent's fields in agent registration order.
	Categories []CategoryResult

	// Manifest records each agent's outcome for observability.
	Manifest map[string]AgentStatus
}
