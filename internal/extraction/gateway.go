package extraction

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/llm"
	"github.com/mallory/trust-summarizer/internal/types"
)

// StageName namespaces this gateway's cache entries.
const StageName = "facts"

// confidenceFloors supplies a default confidence per fact type when the
// capability omits one.
var confidenceFloors = map[types.FactType]float64{
	types.FactCreation:         0.95,
	types.FactPartyIdentity:    0.9,
	types.FactDistributionRule: 0.85,
	types.FactBeneficiaryRight: 0.85,
	types.FactPower:            0.8,
	types.FactTaxProvision:     0.8,
	types.FactAdministrative:   0.7,
	types.FactOther:            0.6,
}

// Gateway wraps the external extraction capability with the cache, the
// retry policy, and fact validation.
type Gateway struct {
	extractor Extractor
	store     *cache.Store
	retry     llm.RetryPolicy
	version   string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewGateway constructs the extraction gateway. version is the pipeline's
// schema version tag; ttl bounds how long cached fact lists live.
func NewGateway(extractor Extractor, store *cache.Store, retry llm.RetryPolicy, version string, ttl time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		extractor: extractor,
		store:     store,
		retry:     retry,
		version:   version,
		ttl:       ttl,
		logger:    logger,
	}
}

// chunkFacts is the cached shape for one chunk's validated extraction.
type chunkFacts struct {
	Facts   []types.Fact `json:"facts"`
	Dropped int          `json:"dropped"`
}

// ExtractChunk returns the validated facts for one chunk, consulting the
// cache first. Facts whose exact text is empty, whose page falls outside
// the chunk's range, or whose type cannot be mapped are dropped and
// counted, not propagated. Exhausted retries produce an *Error; the caller
// degrades the chunk rather than aborting the run.
func (g *Gateway) ExtractChunk(ctx context.Context, chunk types.Chunk) ([]types.Fact, int, error) {
	key := cache.Key{Stage: StageName, Hash: chunk.Hash, Version: g.version}

	var cached chunkFacts
	if cache.GetJSON(ctx, g.store, key, &cached) {
		g.logger.Debug("fact cache hit", zap.Int("chunk", chunk.Index))
		return cached.Facts, cached.Dropped, nil
	}

	var raw []RawFact
	err := g.retry.Do(ctx, func() error {
		var callErr error
		raw, callErr = g.extractor.Extract(ctx, chunk.Text, chunk.StartPage, chunk.EndPage)
		return callErr
	})
	if err != nil {
		return nil, 0, &Error{ChunkIndex: chunk.Index, Message: "extraction failed after retries", Cause: err}
	}

	facts, dropped := g.validate(raw, chunk)
	g.logger.Debug("facts extracted",
		zap.Int("chunk", chunk.Index),
		zap.Int("kept", len(facts)),
		zap.Int("dropped", dropped))

	if putErr := cache.PutJSON(ctx, g.store, key, chunkFacts{Facts: facts, Dropped: dropped}, g.ttl); putErr != nil {
		// A cache write failure degrades performance, not correctness.
		g.logger.Warn("fact cache write failed", zap.Int("chunk", chunk.Index), zap.Error(putErr))
	}
	return facts, dropped, nil
}

// validate filters raw facts down to the ones the pipeline will trust.
func (g *Gateway) validate(raw []RawFact, chunk types.Chunk) ([]types.Fact, int) {
	facts := make([]types.Fact, 0, len(raw))
	dropped := 0
	for _, r := range raw {
		factType, ok := types.ParseFactType(r.Type)
		if !ok {
			dropped++
			continue
		}
		if strings.TrimSpace(r.ExactText) == "" {
			dropped++
			continue
		}
		if !chunk.ContainsPage(r.Page) || (r.PageEnd > 0 && !chunk.ContainsPage(r.PageEnd)) {
			dropped++
			continue
		}

		confidence := r.Confidence
		if confidence <= 0 {
			confidence = confidenceFloors[factType]
		}
		if confidence > 1 {
			confidence = 1
		}

		facts = append(facts, types.Fact{
			Statement:  strings.TrimSpace(r.Statement),
			ExactText:  r.ExactText,
			Page:       r.Page,
			PageEnd:    r.PageEnd,
			Type:       factType,
			Confidence: confidence,
			ChunkIndex: chunk.Index,
		})
	}
	return facts, dropped
}
