package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/citation"
	"github.com/mallory/trust-summarizer/internal/llm"
	"github.com/mallory/trust-summarizer/internal/types"
)

// StageName namespaces this gateway's cache entries.
const StageName = "summary"

// Gateway wraps the external summarization capability with the cache and
// the retry policy.
type Gateway struct {
	summarizer Summarizer
	store      *cache.Store
	retry      llm.RetryPolicy
	version    string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewGateway constructs the summary gateway.
func NewGateway(summarizer Summarizer, store *cache.Store, retry llm.RetryPolicy, version string, ttl time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		summarizer: summarizer,
		store:      store,
		retry:      retry,
		version:    version,
		ttl:        ttl,
		logger:     logger,
	}
}

// SummarizeChunk returns the partial summary for one chunk's cited facts,
// consulting the cache first. The cache key covers both the chunk content
// and the citation assignment, so a rerun that allocates different
// identifiers cannot serve a stale partial. A response that cites
// identifiers outside the assigned set is treated as a failed attempt and
// retried; exhaustion produces an *Error and the caller degrades the
// chunk.
func (g *Gateway) SummarizeChunk(ctx context.Context, chunk types.Chunk, facts []CitedFact) (*types.PartialSummary, error) {
	facts = rankByImportance(facts)
	key := cache.Key{Stage: StageName, Hash: inputHash(chunk, facts), Version: g.version}

	var cached types.PartialSummary
	if cache.GetJSON(ctx, g.store, key, &cached) {
		g.logger.Debug("summary cache hit", zap.Int("chunk", chunk.Index))
		return &cached, nil
	}

	allowed := make(map[string]bool, len(facts))
	for _, cf := range facts {
		allowed[cf.CitationID] = true
	}

	var raw *RawPartial
	err := g.retry.Do(ctx, func() error {
		var callErr error
		raw, callErr = g.summarizer.Summarize(ctx, facts)
		if callErr != nil {
			return callErr
		}
		return checkReferences(raw, allowed)
	})
	if err != nil {
		return nil, &Error{ChunkIndex: chunk.Index, Message: "summary generation failed after retries", Cause: err}
	}

	partial := g.convert(raw, chunk.Index)
	g.logger.Debug("chunk summarized",
		zap.Int("chunk", chunk.Index),
		zap.Int("sections", len(partial.Sections)))

	if putErr := cache.PutJSON(ctx, g.store, key, partial, g.ttl); putErr != nil {
		g.logger.Warn("summary cache write failed", zap.Int("chunk", chunk.Index), zap.Error(putErr))
	}
	return partial, nil
}

// rankByImportance orders the facts most-important-first so the model sees
// the claims that matter before any truncation or attention falloff. The
// sort is stable, so equally weighted facts keep their chunk order and the
// cache key stays deterministic.
func rankByImportance(facts []CitedFact) []CitedFact {
	ordered := make([]CitedFact, len(facts))
	copy(ordered, facts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Fact.Importance() > ordered[j].Fact.Importance()
	})
	return ordered
}

// checkReferences rejects a response that cites identifiers the allocator
// never issued for this chunk.
func checkReferences(raw *RawPartial, allowed map[string]bool) error {
	texts := []string{raw.Executive}
	for _, sec := range raw.Sections {
		texts = append(texts, sec.Content)
	}
	for _, text := range texts {
		for _, id := range citation.ReferencedIDs(text) {
			if !allowed[id] {
				return fmt.Errorf("summary cites unassigned identifier %q", id)
			}
		}
	}
	return nil
}

// convert maps the raw shape onto the pipeline's types, folding
// unrecognized roles into provisions and dropping empty sections.
func (g *Gateway) convert(raw *RawPartial, chunkIndex int) *types.PartialSummary {
	partial := &types.PartialSummary{
		ChunkIndex: chunkIndex,
		Executive:  strings.TrimSpace(raw.Executive),
	}
	for _, sec := range raw.Sections {
		content := strings.TrimSpace(sec.Content)
		if content == "" {
			continue
		}
		partial.Sections = append(partial.Sections, types.Section{
			Role:    types.ParseSectionRole(sec.Role),
			Title:   strings.TrimSpace(sec.Title),
			Content: content,
		})
	}
	return partial
}

// inputHash derives the cache key hash from the chunk content and the
// citation assignment.
func inputHash(chunk types.Chunk, facts []CitedFact) string {
	h := sha256.New()
	h.Write([]byte(chunk.Hash))
	for _, cf := range facts {
		fmt.Fprintf(h, "%s\x00%s\x00", cf.CitationID, cf.Fact.Statement)
	}
	return hex.EncodeToString(h.Sum(nil))
}
