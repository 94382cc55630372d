package pipeline

import "fmt"

// ExtractionError means the document could not be read at all. It is fatal
// for the call.
type ExtractionError struct {
	DocID  string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failed for %s: %s", e.DocID, e.Reason)
	}
	return fmt.Sprintf("extraction failed for %s: %s: %v", e.DocID, e.Reason, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
