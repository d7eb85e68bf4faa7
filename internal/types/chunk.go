package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// Chunk is a bounded, page-provenanced slice of a document's text. Chunks
// are derived views: they carry text copied out of the document plus enough
// provenance to map extracted facts back to pages.
type Chunk struct {
	Index       int    `json:"index"`
	Text        string `json:"text"`
	StartPage   int    `json:"start_page"`
	EndPage     int    `json:"end_page"`
	StartOffset int    `json:"start_offset"` // character offset in the assembled document text
	EndOffset   int    `json:"end_offset"`
	Hash        string `json:"hash"`
}

// ContainsPage reports whether a page number falls inside the chunk's range.
func (c *Chunk) ContainsPage(page int) bool {
	return page >= c.StartPage && page <= c.EndPage
}

// HashText computes the content hash used to identify chunk text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
