package driven

import (
	"context"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// DocumentSource loads raw tender documents into the domain model.
// Raw format handling (PDF, DOCX, plain text) lives behind this port;
// the pipeline only ever sees extracted text and page offsets.
type DocumentSource interface {
	// LoadText extracts the document text and page offset map.
	// Unknown formats fail with domain.ErrUnsupportedFormat; documents
	// that are empty after trimming fail with domain.ErrEmptyDocument.
	LoadText(ctx context.Context, path string) (*domain.Document, error)
}
