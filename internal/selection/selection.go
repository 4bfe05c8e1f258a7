package selection

import (
    "errors"
    "fmt"

    "github.com/local/pdftoolkit/internal/pagerange"
)

// Mode selects the business rule applied on top of range checking.
type Mode int

const (
    // Extract keeps the selected pages.
    Extract Mode = iota
    // Remove drops the selected pages; at least one page must remain.
    Remove
)

func (m Mode) String() string {
    if m == Remove { return "remove" }
    return "extract"
}

var (
    // ErrEmptySelection means the parsed selection resolved to no pages.
    ErrEmptySelection = errors.New("no pages selected")
    // ErrWouldRemoveAllPages is returned in Remove mode when the selection
    // covers the whole document.
    ErrWouldRemoveAllPages = errors.New("cannot remove all pages, at least one page must remain")
)

// OutOfRangeError lists selected page numbers that do not exist in the
// document, so the caller can echo them back to the user.
type OutOfRangeError struct {
    Pages      []int
    TotalPages int
}

func (e *OutOfRangeError) Error() string {
    return fmt.Sprintf("pages %v out of range (document has %d pages)", e.Pages, e.TotalPages)
}

// Validate checks pages against the document's page count and the mode's
// business rule. It never transforms the set: on success the caller keeps
// using the same PageSet it passed in.
func Validate(pages pagerange.PageSet, totalPages int, mode Mode) error {
    if len(pages) == 0 {
        return ErrEmptySelection
    }
    var bad []int
    for _, p := range pages {
        if p < 1 || p > totalPages {
            bad = append(bad, p)
        }
    }
    if len(bad) > 0 {
        return &OutOfRangeError{Pages: bad, TotalPages: totalPages}
    }
    if mode == Remove && len(pages) >= totalPages {
        return ErrWouldRemoveAllPages
    }
    return nil
}

// FullRange returns {1..totalPages}.
func FullRange(totalPages int) pagerange.PageSet {
    out := make(pagerange.PageSet, 0, totalPages)
    for p := 1; p <= totalPages; p++ {
        out = append(out, p)
    }
    return out
}

// Complement returns {1..totalPages} minus pages, in ascending order. Used
// by Remove to derive the retained pages while preserving their original
// relative order.
func Complement(pages pagerange.PageSet, totalPages int) pagerange.PageSet {
    out := make(pagerange.PageSet, 0, totalPages-len(pages))
    for p := 1; p <= totalPages; p++ {
        if !pages.Contains(p) {
            out = append(out, p)
        }
    }
    return out
}
