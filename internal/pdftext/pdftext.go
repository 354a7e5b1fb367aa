// Package pdftext extracts query text from local PDF files.
package pdftext

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxPages bounds extraction to the front matter; the title and
// abstract live on the first pages.
const maxPages = 2

// maxQueryLength keeps the extracted text inside a sensible embedding
// prompt size.
const maxQueryLength = 4000

// QueryText extracts plain text from the first pages of a PDF for use
// as a semantic search query.
func QueryText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString(" ")
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	if text == "" {
		return "", fmt.Errorf("no extractable text in %s", filePath)
	}
	if len(text) > maxQueryLength {
		text = text[:maxQueryLength]
	}
	return text, nil
}
