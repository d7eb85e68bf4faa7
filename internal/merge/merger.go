// Package merge combines per-chunk partial summaries into one final
// summary with a canonical section order, collapsing the duplicate
// sentences that chunk overlap produces and marking the page ranges of
// chunks that failed extraction.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mallory/trust-summarizer/internal/citation"
	"github.com/mallory/trust-summarizer/internal/types"
)

// FailedChunk records a chunk whose facts could not be extracted or
// summarized; its page range is surfaced as a gap marker.
type FailedChunk struct {
	Index     int
	StartPage int
	EndPage   int
}

// defaultTitles names sections whose partials never supplied a title.
var defaultTitles = map[types.SectionRole]string{
	types.SectionIdentity:      "Essential Information",
	types.SectionMechanics:     "Trust Mechanics",
	types.SectionProvisions:    "Key Provisions",
	types.SectionDistributions: "Distributions",
}

// Merge assembles the final summary from the per-chunk partials, in
// chunk order. Sections with the same role are concatenated; a sentence
// that repeats an earlier one with the same citation set is dropped.
// Each failed chunk contributes a gap marker paragraph so the reader can
// see which pages the summary does not cover.
func Merge(partials []*types.PartialSummary, failed []FailedChunk) types.Summary {
	ordered := make([]*types.PartialSummary, 0, len(partials))
	for _, p := range partials {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ChunkIndex < ordered[j].ChunkIndex })

	// The executive paragraph may restate section claims, so it dedups
	// against itself only; sections share one seen set so an overlap
	// duplicate collapses no matter which role it landed in.
	execSeen := make(map[string]bool)
	sectionSeen := make(map[string]bool)

	var execParts []string
	for _, p := range ordered {
		if text := dedupSentences(p.Executive, execSeen); text != "" {
			execParts = append(execParts, text)
		}
	}

	titles := make(map[types.SectionRole]string)
	bodies := make(map[types.SectionRole][]string)
	for _, p := range ordered {
		for _, sec := range p.Sections {
			if titles[sec.Role] == "" && sec.Title != "" {
				titles[sec.Role] = sec.Title
			}
			if text := dedupSentences(sec.Content, sectionSeen); text != "" {
				bodies[sec.Role] = append(bodies[sec.Role], text)
			}
		}
	}

	// Failed chunks leave holes in coverage; the markers live in the
	// catch-all provisions section so the final document always carries
	// them somewhere visible.
	if len(failed) > 0 {
		sorted := append([]FailedChunk(nil), failed...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
		for _, f := range sorted {
			bodies[types.SectionProvisions] = append(bodies[types.SectionProvisions], gapMarker(f))
		}
	}

	sum := types.Summary{Executive: strings.Join(execParts, " ")}
	for _, role := range types.CanonicalSectionOrder {
		parts := bodies[role]
		if len(parts) == 0 {
			continue
		}
		title := titles[role]
		if title == "" {
			title = defaultTitles[role]
		}
		sum.Sections = append(sum.Sections, types.Section{
			Role:    role,
			Title:   title,
			Content: strings.Join(parts, "\n\n"),
		})
	}
	return sum
}

func gapMarker(f FailedChunk) string {
	if f.EndPage > f.StartPage {
		return fmt.Sprintf("[Content unavailable: extraction failed for pages %d–%d]", f.StartPage, f.EndPage)
	}
	return fmt.Sprintf("[Content unavailable: extraction failed for page %d]", f.StartPage)
}

// dedupSentences rebuilds text keeping only sentences not seen before.
// Two sentences are the same when their normalized wording and their
// citation sets both match.
func dedupSentences(text string, seen map[string]bool) string {
	var kept []string
	for _, sentence := range splitSentences(text) {
		key := sentenceKey(sentence)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, sentence)
	}
	return strings.Join(kept, " ")
}

// splitSentences breaks text after terminal punctuation followed by
// whitespace. Citation tokens contain no terminators, so they never
// split a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if isTerminator(runes[i]) && (i == len(runes)-1 || isSpace(runes[i+1])) {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

// sentenceKey normalizes a sentence for duplicate detection: lowercased,
// whitespace-collapsed wording with citation tokens removed, plus the
// sorted citation-id set.
func sentenceKey(sentence string) string {
	ids := citation.ReferencedIDs(sentence)
	sort.Strings(ids)

	stripped := citeTokenReplacer(sentence)
	norm := strings.ToLower(strings.Join(strings.Fields(stripped), " "))
	norm = strings.TrimRight(norm, ".!? ")
	if norm == "" && len(ids) == 0 {
		return ""
	}
	return norm + "|" + strings.Join(ids, ",")
}

func citeTokenReplacer(s string) string {
	for {
		start := strings.Index(s, "{{cite:")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "}}")
		if end < 0 {
			return s
		}
		s = s[:start] + s[start+end+2:]
	}
}
