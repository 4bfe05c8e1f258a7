// Package pdftest provides an in-memory Engine used by tests so the
// assembly pipeline can be exercised without pdfcpu or real PDF bytes.
//
// A fake source document is encoded as "pdf:<label>:<pageCount>", e.g.
// "pdf:A:5". Saving an output yields the copied page identifiers joined
// with ";", e.g. "A#2;A#4;B#1", which makes page-order assertions trivial.
//
// Like the production engine, page handles stay tied to their source
// document until Save: closing a source invalidates its pages, and Save
// fails if any appended page belongs to a closed document.
package pdftest

import (
    "fmt"
    "strconv"
    "strings"

    "github.com/local/pdftoolkit/internal/pdf"
)

type Engine struct {
    // LoadErr, if set, is returned by every Load call.
    LoadErr error
    // SaveErr, if set, is returned by every Save call.
    SaveErr error
    // CopyBatches records the size of every CopyPages call, in order.
    CopyBatches []int
    // Open counts loaded documents not yet closed.
    Open int
}

type doc struct {
    eng    *Engine
    label  string
    pages  int
    closed bool
}

func (d *doc) PageCount() int { return d.pages }

func (d *doc) Close() {
    if d.closed {
        return
    }
    d.closed = true
    d.eng.Open--
}

type page struct {
    doc *doc
    id  string
}

type output struct {
    pages []*page
}

// Source builds the byte encoding of a fake document.
func Source(label string, pages int) []byte {
    return []byte(fmt.Sprintf("pdf:%s:%d", label, pages))
}

func (e *Engine) Load(data []byte) (pdf.Document, error) {
    if e.LoadErr != nil {
        return nil, e.LoadErr
    }
    parts := strings.Split(string(data), ":")
    if len(parts) != 3 || parts[0] != "pdf" {
        return nil, fmt.Errorf("not a fake pdf: %q", data)
    }
    n, err := strconv.Atoi(parts[2])
    if err != nil || n < 0 {
        return nil, fmt.Errorf("bad page count in %q", data)
    }
    e.Open++
    return &doc{eng: e, label: parts[1], pages: n}, nil
}

func (e *Engine) NewOutput() pdf.Output { return &output{} }

func (e *Engine) CopyPages(src pdf.Document, zeroBased []int) ([]pdf.Page, error) {
    d, ok := src.(*doc)
    if !ok {
        return nil, fmt.Errorf("not a fake document")
    }
    if d.closed {
        return nil, fmt.Errorf("document %s is closed", d.label)
    }
    e.CopyBatches = append(e.CopyBatches, len(zeroBased))
    out := make([]pdf.Page, 0, len(zeroBased))
    for _, idx := range zeroBased {
        if idx < 0 || idx >= d.pages {
            return nil, fmt.Errorf("page index %d out of bounds", idx)
        }
        out = append(out, &page{doc: d, id: fmt.Sprintf("%s#%d", d.label, idx+1)})
    }
    return out, nil
}

func (e *Engine) AppendPage(out pdf.Output, p pdf.Page) error {
    o := out.(*output)
    o.pages = append(o.pages, p.(*page))
    return nil
}

func (e *Engine) Save(out pdf.Output) ([]byte, error) {
    if e.SaveErr != nil {
        return nil, e.SaveErr
    }
    o := out.(*output)
    ids := make([]string, len(o.pages))
    for i, p := range o.pages {
        if p.doc.closed {
            return nil, fmt.Errorf("source document %s closed before save", p.doc.label)
        }
        ids[i] = p.id
    }
    return []byte(strings.Join(ids, ";")), nil
}

// PageCount decodes the number of pages in a saved fake output.
func PageCount(saved []byte) int {
    if len(saved) == 0 {
        return 0
    }
    return len(strings.Split(string(saved), ";"))
}
