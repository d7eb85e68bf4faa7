// Package pipeline provides the high-level orchestration for the document
// summarization process: chunking, concurrent fact extraction, citation
// allocation, per-chunk summarization, merging, and integrity validation.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mallory/trust-summarizer/internal/cache"
	"github.com/mallory/trust-summarizer/internal/chunker"
	"github.com/mallory/trust-summarizer/internal/citation"
	"github.com/mallory/trust-summarizer/internal/db"
	"github.com/mallory/trust-summarizer/internal/extraction"
	"github.com/mallory/trust-summarizer/internal/merge"
	"github.com/mallory/trust-summarizer/internal/summarize"
	"github.com/mallory/trust-summarizer/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Chunk   int    `json:"chunk,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Deps holds the collaborators the pipeline orchestrates.
type Deps struct {
	Extractor  *extraction.Gateway
	Summarizer *summarize.Gateway
	Store      *cache.Store
	Database   *db.DB // optional; runs persist artifacts when connected
	Logger     *zap.Logger
}

// Options holds the per-run tunables.
type Options struct {
	Chunking      chunker.Config
	Concurrency   int
	PageAdjacency int
	Version       string
	ResultTTL     time.Duration
	InputPath     string
	OnProgress    ProgressCallback
}

// Output bundles everything a finished run produced.
type Output struct {
	Result *types.Result
	Report *citation.Report
}

// Pipeline runs documents through the summarization stages.
type Pipeline struct {
	deps Deps
	opts Options
}

// New constructs a pipeline. Concurrency defaults to 4.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Pipeline{deps: deps, opts: opts}
}

// resultStage namespaces cached final results.
const resultStage = "result"

// chunkOutcome holds one chunk's extraction result, slotted by index so
// concurrent completion order never changes downstream ordering.
type chunkOutcome struct {
	facts   []types.Fact
	dropped int
	err     error
}

func (p *Pipeline) emit(event ProgressEvent) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(event)
	}
}

// Run summarizes one document. A rerun over an unchanged document with an
// unchanged version is served from the result cache and is byte-identical.
// Individual chunk failures degrade the run to partial; citation conflicts
// and integrity violations fail it.
func (p *Pipeline) Run(ctx context.Context, doc *types.Document) (*Output, error) {
	docHash := doc.Hash()
	log := p.deps.Logger.With(zap.String("document", docHash[:12]))

	resultKey := cache.Key{Stage: resultStage, Hash: docHash, Version: p.opts.Version}
	var cached types.Result
	if cache.GetJSON(ctx, p.deps.Store, resultKey, &cached) {
		log.Info("result served from cache")
		p.emit(ProgressEvent{Step: db.StepResult, Message: "result served from cache"})
		report := citation.Validate(cached.Summary, cached.Citations, doc)
		return &Output{Result: &cached, Report: report}, nil
	}

	runID, database := p.openRun(ctx, docHash, log)

	chunks, err := chunker.Split(doc, p.opts.Chunking)
	if err != nil {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return nil, fmt.Errorf("chunking failed: %w", err)
	}
	log.Info("document chunked", zap.Int("chunks", len(chunks)))
	p.emit(ProgressEvent{Step: db.StepChunks, Message: fmt.Sprintf("split into %d chunk(s)", len(chunks))})
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepChunks, db.CategoryIntermediate, chunks)
	}

	outcomes, err := p.extractAll(ctx, chunks)
	if err != nil {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return nil, err
	}

	var facts []types.Fact
	var failed []merge.FailedChunk
	extracted, droppedTotal := 0, 0
	for i, outcome := range outcomes {
		if outcome.err != nil {
			log.Warn("chunk degraded", zap.Int("chunk", i), zap.Error(outcome.err))
			failed = append(failed, merge.FailedChunk{
				Index:     i,
				StartPage: chunks[i].StartPage,
				EndPage:   chunks[i].EndPage,
			})
			continue
		}
		facts = append(facts, outcome.facts...)
		extracted += len(outcome.facts)
		droppedTotal += outcome.dropped
	}
	if len(failed) == len(chunks) {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return nil, fmt.Errorf("extraction failed for all %d chunks", len(chunks))
	}
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepFacts, db.CategoryIntermediate, facts)
	}

	alloc, err := citation.Allocate(facts, citation.AllocatorConfig{PageAdjacency: p.opts.PageAdjacency})
	if err != nil {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return nil, fmt.Errorf("citation allocation failed: %w", err)
	}
	citations := alloc.ByID()
	log.Info("citations allocated", zap.Int("citations", len(alloc.Citations)))
	p.emit(ProgressEvent{Step: db.StepCitations, Message: fmt.Sprintf("issued %d citation(s)", len(alloc.Citations))})
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepCitations, db.CategoryIntermediate, alloc.Citations)
	}

	partials, failed, err := p.summarizeAll(ctx, chunks, facts, alloc.FactIDs, failed, log)
	if err != nil {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return nil, err
	}
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepPartials, db.CategoryIntermediate, partials)
	}

	summary := merge.Merge(partials, failed)

	report := citation.Validate(summary, citations, doc)
	p.emit(ProgressEvent{Step: db.StepReport, Message: fmt.Sprintf("%d reference(s) checked", report.Checked)})
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepReport, db.CategoryIntermediate, report)
	}
	if err := report.Err(); err != nil {
		p.closeRun(ctx, database, runID, db.RunStatusFailed)
		return &Output{Report: report}, fmt.Errorf("integrity validation failed: %w", err)
	}

	result := p.assembleResult(docHash, chunks, summary, citations, failed, extracted, droppedTotal)

	if result.Meta.Status == types.StatusComplete {
		// Partial results stay uncached so a rerun can retry the failed
		// chunks; their successful stages are already cached per chunk.
		if putErr := cache.PutJSON(ctx, p.deps.Store, resultKey, result, p.opts.ResultTTL); putErr != nil {
			log.Warn("result cache write failed", zap.Error(putErr))
		}
	}

	status := db.RunStatusComplete
	if result.Meta.Status == types.StatusPartial {
		status = db.RunStatusPartial
	}
	if database != nil {
		_ = database.SaveArtifact(ctx, runID, db.StepResult, db.CategoryFinal, result)
	}
	p.closeRun(ctx, database, runID, status)

	log.Info("run finished",
		zap.String("status", string(result.Meta.Status)),
		zap.Int("facts", extracted),
		zap.Int("citations", len(alloc.Citations)))
	p.emit(ProgressEvent{Step: db.StepResult, Message: "summary assembled", Content: result.Meta})

	return &Output{Result: result, Report: report}, nil
}

// extractAll runs fact extraction for every chunk under a bounded worker
// pool. Per-chunk extraction failures are recorded in the outcome slots;
// only context cancellation aborts the group.
func (p *Pipeline) extractAll(ctx context.Context, chunks []types.Chunk) ([]chunkOutcome, error) {
	outcomes := make([]chunkOutcome, len(chunks))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			facts, dropped, err := p.deps.Extractor.ExtractChunk(gCtx, chunk)
			outcomes[i] = chunkOutcome{facts: facts, dropped: dropped, err: err}
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				p.emit(ProgressEvent{Step: db.StepFacts, Chunk: i, Message: "chunk extraction failed"})
				return nil
			}
			p.emit(ProgressEvent{Step: db.StepFacts, Chunk: i,
				Message: fmt.Sprintf("%d fact(s) extracted", len(facts))})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// summarizeAll generates a partial summary per surviving chunk, in chunk
// order. A chunk whose summary fails joins the failed set; its facts keep
// their citations since other chunks may share them.
func (p *Pipeline) summarizeAll(ctx context.Context, chunks []types.Chunk, facts []types.Fact, factIDs []string, failed []merge.FailedChunk, log *zap.Logger) ([]*types.PartialSummary, []merge.FailedChunk, error) {
	failedSet := make(map[int]bool, len(failed))
	for _, f := range failed {
		failedSet[f.Index] = true
	}

	byChunk := make(map[int][]summarize.CitedFact)
	for i, fact := range facts {
		byChunk[fact.ChunkIndex] = append(byChunk[fact.ChunkIndex], summarize.CitedFact{
			CitationID: factIDs[i],
			Fact:       fact,
		})
	}

	var partials []*types.PartialSummary
	for _, chunk := range chunks {
		if failedSet[chunk.Index] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cited := byChunk[chunk.Index]
		if len(cited) == 0 {
			// Nothing extracted, nothing to say about this chunk.
			continue
		}
		partial, err := p.deps.Summarizer.SummarizeChunk(ctx, chunk, cited)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			log.Warn("chunk summary degraded", zap.Int("chunk", chunk.Index), zap.Error(err))
			failed = append(failed, merge.FailedChunk{
				Index:     chunk.Index,
				StartPage: chunk.StartPage,
				EndPage:   chunk.EndPage,
			})
			continue
		}
		partials = append(partials, partial)
		p.emit(ProgressEvent{Step: db.StepPartials, Chunk: chunk.Index,
			Message: fmt.Sprintf("%d section(s) summarized", len(partial.Sections))})
	}
	return partials, failed, nil
}

func (p *Pipeline) assembleResult(docHash string, chunks []types.Chunk, summary types.Summary, citations map[string]types.Citation, failed []merge.FailedChunk, extracted, dropped int) *types.Result {
	method := "chunked"
	if len(chunks) == 1 {
		method = "single_pass"
	}
	status := types.StatusComplete
	failedIdx := make([]int, 0, len(failed))
	for _, f := range failed {
		failedIdx = append(failedIdx, f.Index)
	}
	sort.Ints(failedIdx)
	if len(failedIdx) > 0 {
		status = types.StatusPartial
	}

	return &types.Result{
		Meta: types.ResultMeta{
			DocumentHash:     docHash,
			ProcessingMethod: method,
			Status:           status,
			ChunkCount:       len(chunks),
			FailedChunks:     failedIdx,
			FactsExtracted:   extracted,
			FactsDropped:     dropped,
			CitationsIssued:  len(citations),
			SchemaVersion:    p.opts.Version,
		},
		Summary:   summary,
		Citations: citations,
	}
}

// openRun starts artifact persistence when a database is connected. A
// connection failure is a warning, never a run failure.
func (p *Pipeline) openRun(ctx context.Context, docHash string, log *zap.Logger) (uuid.UUID, *db.DB) {
	if p.deps.Database == nil {
		return uuid.Nil, nil
	}
	runID, err := p.deps.Database.CreateRun(ctx, docHash, p.opts.InputPath)
	if err != nil {
		log.Warn("failed to create database run, continuing without persistence", zap.Error(err))
		return uuid.Nil, nil
	}
	return runID, p.deps.Database
}

func (p *Pipeline) closeRun(ctx context.Context, database *db.DB, runID uuid.UUID, status string) {
	if database == nil || runID == uuid.Nil {
		return
	}
	_ = database.CompleteRun(ctx, runID, status)
}
