package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driving"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// Ensure Orchestrator implements the interface.
var _ driving.Analyzer = (*Orchestrator)(nil)

// Orchestrator sequences the pipeline as an explicit state machine:
// INIT -> INDEXED -> EXTRACTING -> AGGREGATED -> DONE, with terminal
// FAILED reachable from any non-DONE state.
//
// Failures at INIT/INDEXED (unreachable store, empty document) abort the
// whole document. Once indexing succeeded, agent failures only degrade
// the report: DONE always yields one, possibly with unavailable fields.
type Orchestrator struct {
	namespaces *NamespaceManager
	indexer    *Indexer
	agents     []*ExtractionAgent
	aggregator *Aggregator
	cfg        domain.Config

	mu    sync.RWMutex
	state domain.PipelineState
}

// NewOrchestrator wires the pipeline together. It fails if two agents
// claim the same field name: ownership is partitioned by construction.
func NewOrchestrator(
	namespaces *NamespaceManager,
	indexer *Indexer,
	agents []*ExtractionAgent,
	aggregator *Aggregator,
	cfg domain.Config,
) (*Orchestrator, error) {
	owners := make(map[string]string)
	for _, agent := range agents {
		for _, name := range agent.FieldNames() {
			if prev, taken := owners[name]; taken {
				return nil, fmt.Errorf("%w: field %q claimed by both %s and %s",
					domain.ErrInvalidInput, name, prev, agent.Name())
			}
			owners[name] = agent.Name()
		}
	}

	return &Orchestrator{
		namespaces: namespaces,
		indexer:    indexer,
		agents:     agents,
		aggregator: aggregator,
		cfg:        cfg,
		state:      domain.StateInit,
	}, nil
}

// State reports the pipeline's current state.
func (o *Orchestrator) State() domain.PipelineState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// transition moves the machine to next, panicking on an illegal move.
// Transitions are fully determined by Analyze's control flow; an illegal
// one is a programming error, not a runtime condition.
func (o *Orchestrator) transition(next domain.PipelineState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.CanTransition(next) {
		panic(fmt.Sprintf("illegal pipeline transition %s -> %s", o.state, next))
	}
	logger.Debug("Pipeline state: %s -> %s", o.state, next)
	o.state = next
}

// fail moves to FAILED from whatever non-terminal state we are in.
func (o *Orchestrator) fail() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.state.Terminal() {
		logger.Debug("Pipeline state: %s -> %s", o.state, domain.StateFailed)
		o.state = domain.StateFailed
	}
}

// Analyze runs the full pipeline for one document.
func (o *Orchestrator) Analyze(ctx context.Context, doc *domain.Document) (*domain.AggregatedReport, error) {
	o.mu.Lock()
	o.state = domain.StateInit
	o.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.WorkflowTimeout)
	defer cancel()

	logger.Section("Analysis " + doc.ID)

	// INIT: acquire the namespace and index the document. Both failure
	// modes here are fatal: no partial report is produced.
	sessionID := uuid.New().String()
	ns, err := o.namespaces.Acquire(ctx, sessionID, o.cfg.IsolationMode)
	if err != nil {
		o.fail()
		return nil, fmt.Errorf("acquire namespace: %w", err)
	}
	defer o.namespaces.Release(ns)

	chunkCount, err := o.indexer.Index(ctx, ns, doc)
	if err != nil {
		o.fail()
		return nil, fmt.Errorf("index document: %w", err)
	}
	o.transition(domain.StateIndexed)
	logger.Info("Indexed %s into namespace %s (%d chunks)", doc.ID, ns.ID, chunkCount)

	// EXTRACTING: fan out to all agents, bounded by AgentConcurrency.
	// The workflow timeout on ctx cancels stragglers cooperatively; the
	// join barrier below guarantees every agent has settled before
	// aggregation reads anything.
	o.transition(domain.StateExtracting)
	outcomes := o.runAgents(ctx, ns)

	// AGGREGATED: aggregation itself never fails.
	o.transition(domain.StateAggregated)
	report := o.aggregator.Aggregate(doc, o.agents, outcomes)

	o.transition(domain.StateDone)
	logger.Info("Analysis complete for %s: %d categories", doc.ID, len(report.Categories))
	return report, nil
}

// runAgents dispatches every registered agent and collects their
// outcomes. It returns only after all dispatched agents have settled,
// including ones cancelled by the workflow timeout.
func (o *Orchestrator) runAgents(ctx context.Context, ns domain.Namespace) map[string]agentOutcome {
	type agentResult struct {
		name    string
		outcome agentOutcome
	}

	sem := make(chan struct{}, o.cfg.AgentConcurrency)
	results := make(chan agentResult, len(o.agents))

	var wg sync.WaitGroup
	for _, agent := range o.agents {
		wg.Add(1)
		go func(agent *ExtractionAgent) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Never started; the aggregator marks its fields unavailable.
				results <- agentResult{name: agent.Name(), outcome: agentOutcome{err: ctx.Err()}}
				return
			}

			partial, err := agent.Extract(ctx, ns)
			if err != nil {
				logger.Warn("Agent %s failed: %v", agent.Name(), err)
			}
			results <- agentResult{
				name:    agent.Name(),
				outcome: agentOutcome{partial: partial, err: err, returned: true},
			}
		}(agent)
	}

	wg.Wait()
	close(results)

	outcomes := make(map[string]agentOutcome, len(o.agents))
	for r := range results {
		outcomes[r.name] = r.outcome
	}
	return outcomes
}
