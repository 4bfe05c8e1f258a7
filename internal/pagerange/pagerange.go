package pagerange

import (
    "fmt"
    "sort"
    "strconv"
    "strings"
)

// PageSet is a canonical set of 1-based page numbers: strictly increasing
// and duplicate free. Parse may emit out-of-range numbers (0, or beyond the
// document); selection.Validate is where those are rejected.
type PageSet []int

// Parse turns a free-form range expression ("1-3, 5, 7-8") into a PageSet.
// Parsing is best effort: malformed tokens and reversed ranges are dropped
// silently, so an all-malformed input yields an empty set. Callers are
// expected to validate the result against the document afterwards.
func Parse(text string) PageSet {
    seen := map[int]struct{}{}
    for _, seg := range strings.Split(text, ",") {
        seg = strings.TrimSpace(seg)
        if seg == "" { continue }
        if i := strings.Index(seg, "-"); i >= 0 {
            start, err1 := strconv.Atoi(strings.TrimSpace(seg[:i]))
            end, err2 := strconv.Atoi(strings.TrimSpace(seg[i+1:]))
            if err1 != nil || err2 != nil || start > end { continue }
            for p := start; p <= end; p++ {
                seen[p] = struct{}{}
            }
            continue
        }
        p, err := strconv.Atoi(seg)
        if err != nil { continue }
        seen[p] = struct{}{}
    }
    out := make(PageSet, 0, len(seen))
    for p := range seen {
        out = append(out, p)
    }
    sort.Ints(out)
    return out
}

// Format renders a PageSet back into canonical range text, collapsing
// consecutive pages into hyphenated ranges: [1 2 3 5 7 8] -> "1-3, 5, 7-8".
// Parse(Format(s)) == s for any valid PageSet.
func Format(pages PageSet) string {
    if len(pages) == 0 { return "" }
    var parts []string
    start, prev := pages[0], pages[0]
    flush := func() {
        if start == prev {
            parts = append(parts, strconv.Itoa(start))
        } else {
            parts = append(parts, fmt.Sprintf("%d-%d", start, prev))
        }
    }
    for _, p := range pages[1:] {
        if p == prev+1 {
            prev = p
            continue
        }
        flush()
        start, prev = p, p
    }
    flush()
    return strings.Join(parts, ", ")
}

// Contains reports whether page is a member of the set.
func (s PageSet) Contains(page int) bool {
    i := sort.SearchInts(s, page)
    return i < len(s) && s[i] == page
}

// ZeroBased returns the set converted to 0-based indices, the convention
// used by the PDF engine.
func (s PageSet) ZeroBased() []int {
    out := make([]int, len(s))
    for i, p := range s {
        out[i] = p - 1
    }
    return out
}
