package types

// RunStatus marks whether a run completed with full coverage or with gaps.
type RunStatus string

const (
	StatusComplete RunStatus = "complete"
	StatusPartial  RunStatus = "partial"
)

// ResultMeta describes how a result was produced.
type ResultMeta struct {
	DocumentHash     string    `json:"document_hash"`
	ProcessingMethod string    `json:"processing_method"` // "chunked" or "single_pass"
	Status           RunStatus `json:"status"`
	ChunkCount       int       `json:"chunk_count"`
	FailedChunks     []int     `json:"failed_chunks,omitempty"`
	FactsExtracted   int       `json:"facts_extracted"`
	FactsDropped     int       `json:"facts_dropped"`
	CitationsIssued  int       `json:"citations_issued"`
	SchemaVersion    string    `json:"schema_version"`
}

// Result is the stable hand-off record delivered to rendering or storage
// layers: metadata, the merged summary, and the citation map every embedded
// token resolves into.
type Result struct {
	Meta      ResultMeta          `json:"meta"`
	Summary   Summary             `json:"summary"`
	Citations map[string]Citation `json:"citations"`
}
