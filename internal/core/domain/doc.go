// Package domain defines the core business entities for TenderLens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded tender document with its page offsets
//   - Chunk: An embedded slice of document text owned by a namespace
//   - Namespace: An isolated or cumulative retrieval scope
//   - RetrievalHit / RerankedResult: Retrieval pipeline outputs
//   - ExtractionField / AggregatedReport: The analysis result model
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
