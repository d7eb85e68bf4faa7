// Package citation turns raw facts into deduplicated citation records with
// stable identifiers, and validates that a merged summary references only
// citations that exist and are backed by exact source text.
package citation

import (
	"fmt"
	"strings"

	"github.com/mallory/trust-summarizer/internal/types"
)

// DefaultPageAdjacency is how far apart two facts' page ranges may sit and
// still be merged into one citation. The threshold is tunable: the right
// value depends on chunk overlap behavior, not on anything intrinsic to
// the documents.
const DefaultPageAdjacency = 1

// AllocatorConfig controls deduplication.
type AllocatorConfig struct {
	PageAdjacency int
}

// Allocation is the output of identifier assignment: the citation set in
// issue order, plus the identifier assigned to each input fact (parallel
// to the input slice).
type Allocation struct {
	Citations []types.Citation
	FactIDs   []string
}

// ByID returns the citation set as a lookup map.
func (a *Allocation) ByID() map[string]types.Citation {
	m := make(map[string]types.Citation, len(a.Citations))
	for _, c := range a.Citations {
		m[c.ID] = c
	}
	return m
}

// entry tracks one issued citation during allocation.
type entry struct {
	index     int // position in Allocation.Citations
	factType  types.FactType
	startPage int
	endPage   int
}

// Allocate issues identifiers for facts in the order given; callers must
// supply facts sorted by (chunk order, first-seen order within chunk) so
// assignment is deterministic regardless of extraction scheduling. Two
// facts collapse into one citation when their normalized exact text is
// identical and their pages overlap or are adjacent; a collapse across
// different fact types is a data-quality defect and fails with
// *ConflictError rather than being silently resolved.
func Allocate(facts []types.Fact, cfg AllocatorConfig) (*Allocation, error) {
	if cfg.PageAdjacency < 0 {
		cfg.PageAdjacency = DefaultPageAdjacency
	}

	alloc := &Allocation{FactIDs: make([]string, len(facts))}
	byText := make(map[string][]*entry)

	for i, fact := range facts {
		norm := normalizeText(fact.ExactText)

		var matched *entry
		for _, cand := range byText[norm] {
			if !rangesNear(cand.startPage, cand.endPage, fact.Page, fact.LastPage(), cfg.PageAdjacency) {
				continue
			}
			if cand.factType != fact.Type {
				existing := alloc.Citations[cand.index]
				return nil, &ConflictError{
					CitationID: existing.ID,
					Existing:   existing,
					Incoming:   fact,
				}
			}
			matched = cand
			break
		}

		if matched != nil {
			cit := &alloc.Citations[matched.index]
			mergeSource(cit, fact)
			if fact.Confidence > cit.Confidence {
				cit.Confidence = fact.Confidence
			}
			if fact.Page < matched.startPage {
				matched.startPage = fact.Page
			}
			if fact.LastPage() > matched.endPage {
				matched.endPage = fact.LastPage()
			}
			alloc.FactIDs[i] = cit.ID
			continue
		}

		id := fmt.Sprintf("%03d", len(alloc.Citations)+1)
		alloc.Citations = append(alloc.Citations, types.Citation{
			ID:         id,
			Type:       fact.Type,
			Scope:      types.InferScope(fact.ExactText),
			Confidence: fact.Confidence,
			Sources:    []types.Source{sourceFromFact(fact)},
		})
		byText[norm] = append(byText[norm], &entry{
			index:     len(alloc.Citations) - 1,
			factType:  fact.Type,
			startPage: fact.Page,
			endPage:   fact.LastPage(),
		})
		alloc.FactIDs[i] = id
	}

	return alloc, nil
}

// mergeSource appends the fact's source unless an equivalent one is
// already recorded: the same quote caught twice through chunk overlap
// yields one source, not two.
func mergeSource(cit *types.Citation, fact types.Fact) {
	for _, s := range cit.Sources {
		if s.Page == fact.Page && normalizeText(s.ExactText) == normalizeText(fact.ExactText) {
			return
		}
	}
	cit.Sources = append(cit.Sources, sourceFromFact(fact))
}

func sourceFromFact(fact types.Fact) types.Source {
	return types.Source{
		Page:      fact.Page,
		PageEnd:   fact.PageEnd,
		ExactText: fact.ExactText,
		Context:   fact.Statement,
	}
}

// normalizeText lowercases and collapses whitespace for dedup comparison.
func normalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// rangesNear reports whether two page ranges overlap or sit within adj
// pages of each other.
func rangesNear(aStart, aEnd, bStart, bEnd, adj int) bool {
	return bStart <= aEnd+adj && aStart <= bEnd+adj
}
