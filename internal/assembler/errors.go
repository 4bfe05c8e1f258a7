package assembler

import (
    "errors"
    "fmt"
)

// ErrCancelled is returned when the context is cancelled between batches.
var ErrCancelled = errors.New("assembly cancelled")

// SourceUnreadableError means the source bytes could not be read even after
// the configured retries.
type SourceUnreadableError struct {
    Ref      string
    Attempts int
    Err      error
}

func (e *SourceUnreadableError) Error() string {
    return fmt.Sprintf("source %s unreadable after %d attempts: %v", e.Ref, e.Attempts, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error { return e.Err }

// InvalidDocumentError means the source bytes were read but are not a
// loadable PDF document.
type InvalidDocumentError struct {
    Ref string
    Err error
}

func (e *InvalidDocumentError) Error() string {
    return fmt.Sprintf("source %s is not a valid document: %v", e.Ref, e.Err)
}

func (e *InvalidDocumentError) Unwrap() error { return e.Err }

// SerializationError means the assembled output could not be saved.
type SerializationError struct {
    Err error
}

func (e *SerializationError) Error() string {
    return fmt.Sprintf("failed to serialize output document: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
