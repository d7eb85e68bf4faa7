// Package types provides type definitions for structured data used throughout the trust-summarizer system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Page is a single page of source text, as delivered by the text source.
type Page struct {
	Number int    `json:"page_number"`
	Text   string `json:"text"`
}

// Document is an immutable, page-indexed source document. Its identity is
// the hash of its content; two documents with the same pages are the same
// document for caching purposes.
type Document struct {
	Pages []Page `json:"pages"`
}

// Hash returns the content hash identifying this document.
func (d *Document) Hash() string {
	h := sha256.New()
	for _, p := range d.Pages {
		fmt.Fprintf(h, "%d\x00%s\x00", p.Number, p.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TotalChars returns the total number of characters across all pages.
func (d *Document) TotalChars() int {
	total := 0
	for _, p := range d.Pages {
		total += len(p.Text)
	}
	return total
}
