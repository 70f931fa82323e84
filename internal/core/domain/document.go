package domain

import "time"

// Document represents a loaded tender document ready for analysis.
// It is immutable once ingested; the pipeline never mutates it.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, URL, etc).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after extraction.
	// This is the complete document text before chunking.
	Content string

	// PageOffsets maps page numbers to rune offsets into Content.
	// Optional; empty when the source format carries no page information.
	PageOffsets []PageOffset

	// LoadedAt is when the document was loaded.
	LoadedAt time.Time
}

// PageOffset records where a page begins within the document content.
type PageOffset struct {
	// Page is the 1-based page number.
	Page int

	// Offset is the rune offset into Document.Content where the page starts.
	Offset int
}

// Span identifies a half-open rune range [Start, End) within a document's
// content. Spans are the provenance unit: every chunk and every citation
// points back to one.
type Span struct {
	// Start is the inclusive rune offset.
	Start int

	// End is the exclusive rune offset.
	End int
}

// Contains reports whether the span fully covers other.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Chunk represents an embedded slice of document text.
// Each chunk is owned by exactly one namespace.
type Chunk struct {
	// ID is derived from the namespace, span and content, so re-indexing
	// the same document into the same namespace overwrites rather than
	// duplicates.
	ID string

	// NamespaceID is the retrieval scope that owns this chunk.
	NamespaceID string

	// Content is the text content of this chunk.
	Content string

	// Span is the rune range of Content within the source document.
	Span Span

	// Embedding is the vector representation for similarity search.
	Embedding []float32
}
