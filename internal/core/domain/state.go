package domain

// PipelineState is a stage of the analysis state machine.
type PipelineState string

// Pipeline states. FAILED is terminal and reachable from any non-DONE
// state; DONE always carries a report.
const (
	StateInit       PipelineState = "INIT"
	StateIndexed    PipelineState = "INDEXED"
	StateExtracting PipelineState = "EXTRACTING"
	StateAggregated PipelineState = "AGGREGATED"
	StateDone       PipelineState = "DONE"
	StateFailed     PipelineState = "FAILED"
)

// transitions is the state machine's transition table.
var transitions = map[PipelineState][]PipelineState{
	StateInit:       {StateIndexed, StateFailed},
	StateIndexed:    {StateExtracting, StateFailed},
	StateExtracting: {StateAggregated, StateFailed},
	StateAggregated: {StateDone, StateFailed},
	StateDone:       {},
	StateFailed:     {},
}

// CanTransition reports whether moving from s to next is legal.
func (s PipelineState) CanTransition(next PipelineState) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state has no outgoing transitions.
func (s PipelineState) Terminal() bool {
	return len(transitions[s]) == 0
}

// String returns the state name.
func (s PipelineState) String() string {
	return string(s)
}
