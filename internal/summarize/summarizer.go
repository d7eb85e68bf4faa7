// Package summarize provides the per-chunk summary generation gateway:
// the cache-checked, retry-wrapped boundary between the pipeline and the
// external summarization capability. Input is the chunk's facts with
// their already-assigned citation identifiers; output is a partial
// summary whose every claim carries a {{cite:ID}} token.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mallory/trust-summarizer/internal/llm"
	"github.com/mallory/trust-summarizer/internal/prompts"
	"github.com/mallory/trust-summarizer/internal/schemas"
	"github.com/mallory/trust-summarizer/internal/types"
)

// CitedFact pairs one validated fact with the citation identifier the
// allocator assigned to it.
type CitedFact struct {
	CitationID string
	Fact       types.Fact
}

// RawPartial is a partial summary as the external capability returns it.
type RawPartial struct {
	Executive string       `json:"executive"`
	Sections  []RawSection `json:"sections"`
}

// RawSection is one section of a raw partial summary.
type RawSection struct {
	Role    string `json:"role"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Summarizer is the external summary generation capability.
type Summarizer interface {
	Summarize(ctx context.Context, facts []CitedFact) (*RawPartial, error)
}

// LLMSummarizer implements Summarizer against the language model client.
type LLMSummarizer struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMSummarizer returns a Summarizer backed by the given client.
func NewLLMSummarizer(client llm.Client) *LLMSummarizer {
	return &LLMSummarizer{client: client, tier: llm.TierStandard}
}

// Summarize prompts the model with the fact list and parses the returned
// partial summary, checking it against the partial summary JSON Schema
// first.
func (s *LLMSummarizer) Summarize(ctx context.Context, facts []CitedFact) (*RawPartial, error) {
	template, err := prompts.Get("summary.json", "partial_summary")
	if err != nil {
		return nil, err
	}
	prompt := prompts.Format(template, map[string]string{
		"FactList": FormatFactList(facts),
	})

	response, err := s.client.GenerateJSON(ctx, prompt, s.tier)
	if err != nil {
		return nil, fmt.Errorf("summary generation call failed: %w", err)
	}

	raw := []byte(response)
	if err := schemas.Validate(schemas.PartialSummary, raw); err != nil {
		return nil, fmt.Errorf("summary response rejected: %w", err)
	}

	var partial RawPartial
	if err := json.Unmarshal(raw, &partial); err != nil {
		return nil, fmt.Errorf("failed to parse summary response: %w", err)
	}
	return &partial, nil
}

// FormatFactList renders the cited facts as the line-per-fact listing the
// summary prompt embeds.
func FormatFactList(facts []CitedFact) string {
	var b strings.Builder
	for _, cf := range facts {
		pages := fmt.Sprintf("page %d", cf.Fact.Page)
		if cf.Fact.PageEnd > cf.Fact.Page {
			pages = fmt.Sprintf("pages %d-%d", cf.Fact.Page, cf.Fact.PageEnd)
		}
		fmt.Fprintf(&b, "[{{cite:%s}}] (%s, %s) %s\n", cf.CitationID, cf.Fact.Type, pages, cf.Fact.Statement)
	}
	return b.String()
}
