package ops

import (
    "errors"
    "fmt"

    "github.com/local/pdftoolkit/internal/assembler"
    "github.com/local/pdftoolkit/internal/selection"
    "github.com/local/pdftoolkit/internal/source"
)

// UserMessage maps any operation error to the message shown to the user.
// No error here is fatal to the process; the user adjusts input and tries
// again.
func UserMessage(err error) string {
    if err == nil {
        return ""
    }

    var oor *selection.OutOfRangeError
    var tooBig *source.FileTooLargeError
    var unreadable *assembler.SourceUnreadableError
    var invalid *assembler.InvalidDocumentError
    var serialize *assembler.SerializationError

    switch {
    case errors.Is(err, selection.ErrEmptySelection):
        return "Enter at least one valid page number or range."
    case errors.As(err, &oor):
        return fmt.Sprintf("Pages %v do not exist; the document has %d pages.", oor.Pages, oor.TotalPages)
    case errors.Is(err, selection.ErrWouldRemoveAllPages):
        return "At least one page must remain in the document."
    case errors.Is(err, ErrTooFewSources):
        return "Select at least two PDF files to merge."
    case errors.Is(err, ErrBusy):
        return "Another operation is still running. Wait for it to finish."
    case errors.Is(err, source.ErrNotAPDF):
        return "That file does not look like a PDF."
    case errors.As(err, &tooBig):
        return fmt.Sprintf("The file is too large (%d MB limit).", tooBig.Max>>20)
    case errors.As(err, &unreadable):
        return "The file could not be read. Check that it still exists and retry."
    case errors.As(err, &invalid):
        return "The file could not be opened as a PDF. It may be corrupt."
    case errors.As(err, &serialize):
        // Usually memory pressure on very large documents.
        return "Saving the new document failed. Try again with fewer pages or smaller files."
    case errors.Is(err, assembler.ErrCancelled):
        return "The operation was cancelled."
    default:
        return "The operation failed unexpectedly. Please try again."
    }
}
