package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mallory/trust-summarizer/internal/types"
)

var citeTokenRe = regexp.MustCompile(`\{\{cite:([0-9A-Za-z_-]+)\}\}`)

// ReferencedIDs returns every citation identifier mentioned in the text,
// in order of appearance, duplicates included.
func ReferencedIDs(text string) []string {
	matches := citeTokenRe.FindAllStringSubmatch(text, -1)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m[1])
	}
	return ids
}

// Report holds the outcome of validating a merged summary against its
// citation set. Fatal violations gate the result; warnings do not.
type Report struct {
	Checked    int
	Violations []Violation
	Warnings   []Violation
}

// Err returns an *IntegrityError when fatal violations were found, nil
// otherwise.
func (r *Report) Err() error {
	if len(r.Violations) == 0 {
		return nil
	}
	return &IntegrityError{Violations: r.Violations}
}

// Validate checks a merged summary against its citation set. Every
// {{cite:ID}} token must resolve, and every citation must carry at least
// one source with non-empty exact text. When doc is non-nil, each source
// is additionally checked for verbatim presence on its claimed page;
// mismatches and citations no surviving sentence references are reported
// as warnings.
func Validate(sum types.Summary, citations map[string]types.Citation, doc *types.Document) *Report {
	report := &Report{}

	referenced := make(map[string]bool)
	checkText := func(section, text string) {
		for _, id := range ReferencedIDs(text) {
			report.Checked++
			if _, ok := citations[id]; !ok {
				report.Violations = append(report.Violations, Violation{
					Kind:       ViolationUnresolved,
					CitationID: id,
					Section:    section,
					Detail:     fmt.Sprintf("{{cite:%s}} does not match any issued citation", id),
				})
				continue
			}
			referenced[id] = true
		}
	}

	checkText("executive", sum.Executive)
	for _, sec := range sum.Sections {
		checkText(string(sec.Role), sec.Content)
	}

	var pages map[int]string
	if doc != nil {
		pages = make(map[int]string, len(doc.Pages))
		for _, p := range doc.Pages {
			pages[p.Number] = normalizeText(p.Text)
		}
	}

	ids := make([]string, 0, len(citations))
	for id := range citations {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cit := citations[id]
		if !referenced[id] {
			report.Warnings = append(report.Warnings, Violation{
				Kind:       ViolationOrphaned,
				CitationID: id,
				Detail:     "citation is never referenced by the summary text",
			})
		}
		if len(cit.Sources) == 0 {
			report.Violations = append(report.Violations, Violation{
				Kind:       ViolationMissingSource,
				CitationID: id,
				Detail:     "citation has no sources",
			})
			continue
		}
		hasText := false
		for _, src := range cit.Sources {
			if strings.TrimSpace(src.ExactText) == "" {
				continue
			}
			hasText = true
			if pages == nil {
				continue
			}
			if !sourceOnPage(src, pages) {
				report.Warnings = append(report.Warnings, Violation{
					Kind:       ViolationTextNotOnPage,
					CitationID: id,
					Detail:     fmt.Sprintf("exact text not found on page %d", src.Page),
				})
			}
		}
		if !hasText {
			report.Violations = append(report.Violations, Violation{
				Kind:       ViolationEmptySourceText,
				CitationID: id,
				Detail:     "no source carries exact text",
			})
		}
	}

	return report
}

// sourceOnPage checks the source's quote against the normalized text of
// every page in its claimed range.
func sourceOnPage(src types.Source, pages map[int]string) bool {
	needle := normalizeText(src.ExactText)
	last := src.Page
	if src.PageEnd > last {
		last = src.PageEnd
	}
	for p := src.Page; p <= last; p++ {
		if text, ok := pages[p]; ok && strings.Contains(text, needle) {
			return true
		}
	}
	// A quote split across a page boundary will not match either page
	// alone; try the joined range before declaring a mismatch.
	if last > src.Page {
		var joined []string
		for p := src.Page; p <= last; p++ {
			joined = append(joined, pages[p])
		}
		return strings.Contains(strings.Join(joined, " "), needle)
	}
	return false
}
