// Package services implements the driving port interfaces.
// Services contain the core analysis pipeline: namespace management,
// chunking and indexing, query-expanded multi-round retrieval,
// extraction agents, the orchestrating state machine and the
// deterministic aggregator. They orchestrate calls to driven ports
// (adapters) and hold no provider-specific code.
package services
