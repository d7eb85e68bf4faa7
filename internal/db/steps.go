package db

// Step constants name the pipeline stage an artifact came from.
const (
	StepChunks    = "chunks"
	StepFacts     = "facts"
	StepCitations = "citations"
	StepPartials  = "partial_summaries"
	StepResult    = "result"
	StepReport    = "integrity_report"
)

// Category constants distinguish intermediate artifacts from deliverables.
const (
	CategoryIntermediate = "intermediate"
	CategoryFinal        = "final"
)

// Run status constants mirror the pipeline's run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusPartial  = "partial"
	RunStatusFailed   = "failed"
)
