package file

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
)

// loadPDF extracts plain text from a PDF, recording the rune offset at
// which each page's text begins.
func loadPDF(path string) (string, []domain.PageOffset, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var (
		buf    strings.Builder
		pages  []domain.PageOffset
		offset int
	)

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail extraction; scanned pages have no text layer.
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
			offset++
		}
		pages = append(pages, domain.PageOffset{Page: i, Offset: offset})
		buf.WriteString(text)
		offset += utf8.RuneCountInString(text)
	}

	return buf.String(), pages, nil
}
