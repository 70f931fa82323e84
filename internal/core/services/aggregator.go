package services

import (
	"time"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// agentOutcome is what the orchestrator collected for one agent.
// returned is false when the agent never reported back (crashed or
// cancelled before producing a partial result).
type agentOutcome struct {
	partial  domain.PartialExtractionResult
	err      error
	returned bool
}

// Aggregator deterministically merges per-agent partial results into the
// final report. Aggregation never fails: missing or partial input is
// represented as unavailable fields, not as an error.
type Aggregator struct{}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator { return &Aggregator{} }

// Aggregate walks the registered agents in fixed order and copies each
// partial result into the report. Field ownership is statically
// partitioned, so no value-level conflict resolution is needed.
func (g *Aggregator) Aggregate(doc *domain.Document, agents []*ExtractionAgent, outcomes map[string]agentOutcome) *domain.AggregatedReport {
	report := &domain.AggregatedReport{
		DocumentID:    doc.ID,
		DocumentTitle: doc.Title,
		GeneratedAt:   time.Now(),
		Categories:    make([]domain.CategoryResult, 0, len(agents)),
		Manifest:      make(map[string]domain.AgentStatus, len(agents)),
	}

	for _, agent := range agents {
		outcome, ok := outcomes[agent.Name()]
		if !ok || !outcome.returned {
			// The agent crashed without returning: record every field it
			// owns as unavailable with a citation-less entry.
			logger.Warn("Agent %s produced no result, marking all fields unavailable", agent.Name())
			report.Categories = append(report.Categories, failedCategory(agent))
			report.Manifest[agent.Name()] = domain.AgentFailed
			continue
		}

		fields := make([]domain.ExtractionField, len(outcome.partial.Fields))
		copy(fields, outcome.partial.Fields)
		report.Categories = append(report.Categories, domain.CategoryResult{
			Agent:    agent.Name(),
			Category: agent.Category(),
			Fields:   fields,
		})
		report.Manifest[agent.Name()] = agentStatus(outcome, fields)
	}

	return report
}

// failedCategory synthesizes an all-unavailable section for an agent
// that never reported back.
func failedCategory(agent *ExtractionAgent) domain.CategoryResult {
	specs := agent.FieldSpecs()
	fields := make([]domain.ExtractionField, len(specs))
	for i, spec := range specs {
		fields[i] = domain.ExtractionField{
			Name:   spec.Name,
			Label:  spec.Label,
			Value:  "",
			Status: domain.FieldUnavailable,
		}
	}
	return domain.CategoryResult{
		Agent:    agent.Name(),
		Category: agent.Category(),
		Fields:   fields,
	}
}

// agentStatus derives the manifest entry from the agent's outcome.
func agentStatus(outcome agentOutcome, fields []domain.ExtractionField) domain.AgentStatus {
	if outcome.err != nil {
		return domain.AgentFailed
	}
	for _, f := range fields {
		if f.Status == domain.FieldUnavailable {
			return domain.AgentPartial
		}
	}
	return domain.AgentSucceeded
}
