package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/citation"
	"github.com/mallory/trust-summarizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs a human-readable recap of a finished run.
func (p *Printer) PrintRunSummary(result *types.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:     %s\n", result.Meta.Status))
	sb.WriteString(fmt.Sprintf("Method:     %s\n", result.Meta.ProcessingMethod))
	sb.WriteString(fmt.Sprintf("Chunks:     %d", result.Meta.ChunkCount))
	if len(result.Meta.FailedChunks) > 0 {
		sb.WriteString(fmt.Sprintf(" (%d failed)", len(result.Meta.FailedChunks)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Facts:      %d extracted, %d dropped\n", result.Meta.FactsExtracted, result.Meta.FactsDropped))
	sb.WriteString(fmt.Sprintf("Citations:  %d\n", result.Meta.CitationsIssued))
	sb.WriteString("\nSections:\n")
	count := min(len(result.Summary.Sections), maxItemsToShow)
	for i := 0; i < count; i++ {
		sec := result.Summary.Sections[i]
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", sec.Title, sec.Role))
	}
	if len(result.Summary.Sections) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(result.Summary.Sections)-maxItemsToShow))
	}

	p.printBox("Summary Run", strings.TrimRight(sb.String(), "\n"))
}

// PrintCacheStats outputs hit/miss counters for both cache layers.
func (p *Printer) PrintCacheStats(stats cache.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Memory:     %d hits / %d misses (%.0f%%)\n",
		stats.Memory.Hits, stats.Memory.Misses, stats.Memory.HitRate()*100))
	sb.WriteString(fmt.Sprintf("Durable:    %d hits / %d misses (%.0f%%)\n",
		stats.Durable.Hits, stats.Durable.Misses, stats.Durable.HitRate()*100))
	sb.WriteString(fmt.Sprintf("Promotions: %d\n", stats.Promotions))
	sb.WriteString(fmt.Sprintf("Corrupt:    %d", stats.Corruptions))

	p.printBox("Cache", sb.String())
}

// PrintValidationReport outputs the citation integrity findings.
func (p *Printer) PrintValidationReport(report *citation.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("References checked: %d\n", report.Checked))
	sb.WriteString(fmt.Sprintf("Violations:         %d\n", len(report.Violations)))
	sb.WriteString(fmt.Sprintf("Warnings:           %d\n", len(report.Warnings)))

	printIssues := func(label string, issues []citation.Violation) {
		if len(issues) == 0 {
			return
		}
		sb.WriteString("\n" + label + ":\n")
		count := min(len(issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			v := issues[i]
			sb.WriteString(fmt.Sprintf("  • %s %s\n", v.Kind, v.CitationID))
		}
		if len(issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(issues)-maxItemsToShow))
		}
	}
	printIssues("Violations", report.Violations)
	printIssues("Warnings", report.Warnings)

	p.printBox("Citation Integrity", strings.TrimRight(sb.String(), "\n"))
}
