package types

import "strings"

// CitationScope describes how much text a citation's sources span.
type CitationScope string

const (
	ScopeWord      CitationScope = "word"
	ScopePhrase    CitationScope = "phrase"
	ScopeSentence  CitationScope = "sentence"
	ScopeParagraph CitationScope = "paragraph"
	ScopeSection   CitationScope = "section"
	ScopeTable     CitationScope = "table"
)

// Source is a single exact-quote location backing a citation.
type Source struct {
	Page      int    `json:"page"`
	PageEnd   int    `json:"page_end,omitempty"`
	Location  string `json:"location,omitempty"` // section/paragraph hint when available
	ExactText string `json:"exact_text"`
	Context   string `json:"context,omitempty"`
}

// Citation is a deduplicated, identifiable bundle of one or more Sources
// supporting one fact statement. Identifiers are issued once per document
// run and never reused for a different fact.
type Citation struct {
	ID         string        `json:"id"`
	Type       FactType      `json:"fact_type"`
	Scope      CitationScope `json:"scope"`
	Confidence float64       `json:"confidence"`
	Sources    []Source      `json:"sources"`
}

// InferScope derives a citation scope from the exact quoted text.
func InferScope(exactText string) CitationScope {
	trimmed := strings.TrimSpace(exactText)
	words := strings.Fields(trimmed)
	switch {
	case len(words) <= 1:
		return ScopeWord
	case len(words) <= 5:
		return ScopePhrase
	case strings.Count(trimmed, ".") > 1 || strings.Contains(trimmed, "\n\n"):
		return ScopeParagraph
	default:
		return ScopeSentence
	}
}
