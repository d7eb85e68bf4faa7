package chunker

import "fmt"

// InvalidDocumentError indicates malformed input: empty page text or
// non-monotonic page numbers. It is fatal to the run.
type InvalidDocumentError struct {
	Message string
	Cause   error
}

func (e *InvalidDocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid document: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid document: %s", e.Message)
}

func (e *InvalidDocumentError) Unwrap() error {
	return e.Cause
}
