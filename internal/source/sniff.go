package source

import (
    "errors"
    "fmt"

    "github.com/gabriel-vasile/mimetype"
)

// ErrNotAPDF means the uploaded bytes are not a PDF by magic-byte sniffing.
var ErrNotAPDF = errors.New("file is not a PDF")

// FileTooLargeError means the upload exceeds the configured size cap.
type FileTooLargeError struct {
    Size int64
    Max  int64
}

func (e *FileTooLargeError) Error() string {
    return fmt.Sprintf("file of %d bytes exceeds the %d byte limit", e.Size, e.Max)
}

// CheckPDF validates upload bytes before any assembly work: size cap first
// (maxBytes <= 0 disables it), then magic-byte type detection. Filenames
// are deliberately ignored; only content counts.
func CheckPDF(data []byte, maxBytes int64) error {
    if maxBytes > 0 && int64(len(data)) > maxBytes {
        return &FileTooLargeError{Size: int64(len(data)), Max: maxBytes}
    }
    if !mimetype.Detect(data).Is("application/pdf") {
        return ErrNotAPDF
    }
    return nil
}
