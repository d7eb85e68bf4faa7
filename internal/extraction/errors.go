package extraction

import "fmt"

// Error is a per-chunk extraction failure after retries were exhausted.
// It is non-fatal: the merge step surfaces the affected chunk as a gap.
type Error struct {
	ChunkIndex int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chunk %d: %s: %v", e.ChunkIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("chunk %d: %s", e.ChunkIndex, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
