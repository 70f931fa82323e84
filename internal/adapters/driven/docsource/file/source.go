// Package file provides a document source that loads tender documents
// from the local filesystem. Plain text, Markdown, PDF and DOCX are
// supported; format is chosen by extension.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source loads documents from local files.
type Source struct{}

// NewSource creates a filesystem document source.
func NewSource() *Source { return &Source{} }

// LoadText extracts the document text and page offsets for the file at
// path. The document ID is derived from the file content, so loading
// the same file twice yields the same ID.
func (s *Source) LoadText(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		content string
		pages   []domain.PageOffset
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		content, err = loadPlainText(path)
	case ".pdf":
		content, pages, err = loadPDF(path)
	case ".docx":
		content, err = loadDOCX(path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, path)
	}

	sum := sha256.Sum256([]byte(content))
	base := filepath.Base(path)

	return &domain.Document{
		ID:          hex.EncodeToString(sum[:])[:12],
		URI:         path,
		Title:       strings.TrimSuffix(base, filepath.Ext(base)),
		Content:     content,
		PageOffsets: pages,
		LoadedAt:    time.Now(),
	}, nil
}

// loadPlainText reads a .txt or .md file as UTF-8 text.
func loadPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrUnsupportedFormat, filepath.Base(path))
	}
	return string(data), nil
}
