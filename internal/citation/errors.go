package citation

import (
	"fmt"
	"strings"

	"github.com/mallory/trust-summarizer/internal/types"
)

// ConflictError reports a deduplication merge that would join facts of
// different types under one citation.
type ConflictError struct {
	CitationID string
	Existing   types.Citation
	Incoming   types.Fact
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("citation conflict on %s: existing type %s, incoming type %s (page %d)",
		e.CitationID, e.Existing.Type, e.Incoming.Type, e.Incoming.Page)
}

// Violation is one integrity check failure found in a finished summary.
type Violation struct {
	Kind       string
	CitationID string
	Section    string
	Detail     string
}

// Violation kinds. The first three are fatal; the rest are reported as
// warnings.
const (
	ViolationUnresolved      = "unresolved_reference"
	ViolationMissingSource   = "missing_source"
	ViolationEmptySourceText = "empty_source_text"
	ViolationTextNotOnPage   = "source_text_not_on_page"
	ViolationOrphaned        = "orphaned_citation"
)

// IntegrityError aggregates every fatal violation found in a single
// validation pass.
type IntegrityError struct {
	Violations []Violation
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "citation integrity check failed with %d violation(s)", len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "; %s %s", v.Kind, v.CitationID)
	}
	return b.String()
}
