// Package llm provides the client abstraction over the external language
// model the pipeline calls for fact extraction and summarization, plus the
// retry and rate-limit policies wrapped around those calls.
package llm

// ModelTier represents the complexity/capability level of a model.
type ModelTier string

const (
	// TierLite is for simple tasks: per-chunk fact extraction.
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: per-chunk summarization.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning, kept for future passes.
	TierAdvanced ModelTier = "advanced"
)

// Config holds the model configuration.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// GetModel returns the model name for a tier, falling back down the tier
// ladder when the requested tier is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
