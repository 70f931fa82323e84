package driving

import (
	"context"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// Analyzer runs the full retrieval-augmented extraction pipeline for one
// tender document and returns the aggregated report.
//
// A returned report may contain unavailable fields; that is a completed
// analysis, not an error. An error return means the pipeline failed
// before extraction could begin (empty document, unreachable store).
type Analyzer interface {
	// Analyze indexes the document, runs all extraction agents and
	// aggregates their results.
	Analyze(ctx context.Context, doc *domain.Document) (*domain.AggregatedReport, error)

	// State reports the pipeline's current state for observability.
	State() domain.PipelineState
}
