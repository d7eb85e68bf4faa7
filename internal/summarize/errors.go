package summarize

import "fmt"

// Error reports a chunk whose summary could not be generated.
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
