// Package chunker splits a page-indexed document into bounded, page-aware
// text chunks with bounded overlap at the edges.
package chunker

import (
	"fmt"
	"strings"

	"github.com/mallory/trust-summarizer/internal/types"
)

const (
	// DefaultMaxChunkSize is the default upper bound on chunk text length.
	DefaultMaxChunkSize = 20000
	// DefaultOverlap is how many characters of the previous chunk's tail are
	// carried into the next chunk to avoid truncating sentences.
	DefaultOverlap = 500
)

// Config controls how documents are split.
type Config struct {
	MaxChunkSize int
	Overlap      int
}

// DefaultConfig returns the standard chunking parameters.
func DefaultConfig() Config {
	return Config{MaxChunkSize: DefaultMaxChunkSize, Overlap: DefaultOverlap}
}

// Split divides a document into ordered chunks covering every page, with no
// gaps. A chunk's page range includes every page whose text contributes to
// it, including the page an overlap tail was copied from, so a fact quoted
// from overlap text always carries a page inside the chunk's range. A
// document shorter than MaxChunkSize yields exactly one chunk through the
// same code path.
func Split(doc *types.Document, cfg Config) ([]types.Chunk, error) {
	if err := validate(doc); err != nil {
		return nil, err
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = DefaultMaxChunkSize
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}

	var (
		chunks    []types.Chunk
		cur       strings.Builder
		curStart  int // page number
		curEnd    int
		curOffset int // offset of the chunk's first owned character in the assembled text
		offset    int // running offset in the assembled text
		started   bool
	)

	flush := func() {
		text := cur.String()
		chunks = append(chunks, types.Chunk{
			Index:       len(chunks),
			Text:        text,
			StartPage:   curStart,
			EndPage:     curEnd,
			StartOffset: curOffset,
			EndOffset:   curOffset + len(text),
			Hash:        types.HashText(text),
		})
	}

	for _, page := range doc.Pages {
		block := pageBlock(page)

		if started && cur.Len()+len(block) > cfg.MaxChunkSize {
			prevEnd := curEnd
			prevText := cur.String()
			flush()

			tail := overlapTail(prevText, cfg.Overlap)
			cur.Reset()
			cur.WriteString(tail)
			cur.WriteString(block)
			curOffset = offset - len(tail)
			if tail != "" {
				// The overlap was copied from the last page of the previous
				// chunk; keep that page inside this chunk's range.
				curStart = prevEnd
			} else {
				curStart = page.Number
			}
			curEnd = page.Number
		} else {
			if !started {
				curStart = page.Number
				curOffset = offset
				started = true
			}
			cur.WriteString(block)
			curEnd = page.Number
		}
		offset += len(block)
	}

	if cur.Len() > 0 {
		flush()
	}
	return chunks, nil
}

// pageBlock renders one page the way chunks carry it, with a page marker so
// downstream extraction can attribute quotes to pages.
func pageBlock(p types.Page) string {
	return fmt.Sprintf("[Page %d]\n%s\n", p.Number, p.Text)
}

// overlapTail returns the trailing characters of a chunk to prepend to the
// next one, preferring to start just after the last sentence boundary
// inside the overlap window.
func overlapTail(text string, overlap int) string {
	if overlap == 0 {
		return ""
	}
	if len(text) <= overlap {
		return text
	}
	region := text[len(text)-overlap:]
	if i := strings.LastIndex(region, "."); i >= 0 {
		tail := strings.TrimSpace(region[i+1:])
		if tail == "" {
			return ""
		}
		return tail + "\n"
	}
	return strings.TrimSpace(region) + "\n"
}

func validate(doc *types.Document) error {
	if doc == nil || len(doc.Pages) == 0 {
		return &InvalidDocumentError{Message: "document has no pages"}
	}
	prev := 0
	for i, p := range doc.Pages {
		if strings.TrimSpace(p.Text) == "" {
			return &InvalidDocumentError{Message: fmt.Sprintf("page %d has empty text", p.Number)}
		}
		if i > 0 && p.Number <= prev {
			return &InvalidDocumentError{
				Message: fmt.Sprintf("page numbers not monotonic: %d follows %d", p.Number, prev),
			}
		}
		prev = p.Number
	}
	return nil
}
