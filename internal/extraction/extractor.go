// Package extraction provides the per-chunk fact extraction gateway: the
// cache-checked, retry-wrapped, validation-guarded boundary between the
// pipeline and the external fact-extraction capability.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mallory/trust-summarizer/internal/llm"
	"github.com/mallory/trust-summarizer/internal/prompts"
	"github.com/mallory/trust-summarizer/internal/schemas"
)

// RawFact is a fact-like record as the external capability returns it,
// before any of it is trusted.
type RawFact struct {
	Statement  string  `json:"statement"`
	ExactText  string  `json:"exact_text"`
	Page       int     `json:"page"`
	PageEnd    int     `json:"page_end,omitempty"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Extractor is the external fact-extraction capability. It may fail
// transiently; the gateway retries per its policy.
type Extractor interface {
	Extract(ctx context.Context, chunkText string, startPage, endPage int) ([]RawFact, error)
}

// LLMExtractor implements Extractor against the language model client.
type LLMExtractor struct {
	client llm.Client
	tier   llm.ModelTier
}

// NewLLMExtractor returns an Extractor backed by the given client.
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client, tier: llm.TierLite}
}

// Extract prompts the model with the chunk text and parses the returned
// fact list. The response is checked against the facts JSON Schema before
// being decoded.
func (e *LLMExtractor) Extract(ctx context.Context, chunkText string, startPage, endPage int) ([]RawFact, error) {
	template, err := prompts.Get("extraction.json", "facts")
	if err != nil {
		return nil, err
	}
	prompt := prompts.Format(template, map[string]string{
		"ChunkText": chunkText,
		"StartPage": strconv.Itoa(startPage),
		"EndPage":   strconv.Itoa(endPage),
	})

	response, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, fmt.Errorf("fact extraction call failed: %w", err)
	}

	raw := []byte(response)
	if err := schemas.Validate(schemas.Facts, raw); err != nil {
		return nil, fmt.Errorf("fact extraction response rejected: %w", err)
	}

	var envelope struct {
		Facts []RawFact `json:"facts"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse fact extraction response: %w", err)
	}
	return envelope.Facts, nil
}
