// Package ingestion turns input files into the page-wise document the
// pipeline consumes. Two formats are accepted: PDF, extracted page by
// page, and JSON page arrays for documents whose text was extracted
// elsewhere.
package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mallory/trust-summarizer/internal/types"
)

// Load reads path and dispatches on its extension: .pdf goes through the
// PDF extractor, anything else is parsed as a JSON page array.
func Load(path string) (*types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return FromPDF(content)
	}
	return FromJSON(content)
}

// FromPDF extracts per-page plain text from a PDF. Pages whose extraction
// yields no text are kept out of the document; the page numbering of the
// remaining pages still follows the PDF.
func FromPDF(content []byte) (*types.Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	doc := &types.Document{}
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i+1, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, types.Page{Number: i + 1, Text: text})
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("PDF yielded no extractable text")
	}
	return doc, nil
}

// jsonPage is the accepted wire shape for pre-extracted documents.
type jsonPage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// FromJSON parses a page array of the form
// [{"page": 1, "text": "..."}, ...]. Pages may arrive in any order;
// the document is assembled in page-number order.
func FromJSON(content []byte) (*types.Document, error) {
	var pages []jsonPage
	if err := json.Unmarshal(content, &pages); err != nil {
		return nil, fmt.Errorf("parse JSON pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("JSON input contains no pages")
	}

	doc := &types.Document{Pages: make([]types.Page, 0, len(pages))}
	for _, p := range pages {
		if p.Page <= 0 {
			return nil, fmt.Errorf("invalid page number %d", p.Page)
		}
		doc.Pages = append(doc.Pages, types.Page{Number: p.Page, Text: p.Text})
	}

	sort.Slice(doc.Pages, func(i, j int) bool { return doc.Pages[i].Number < doc.Pages[j].Number })
	for i := 1; i < len(doc.Pages); i++ {
		if doc.Pages[i].Number == doc.Pages[i-1].Number {
			return nil, fmt.Errorf("duplicate page number %d", doc.Pages[i].Number)
		}
	}
	return doc, nil
}
