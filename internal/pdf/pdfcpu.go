package pdf

import (
    "bytes"
    "fmt"
    "io"

    "github.com/pdfcpu/pdfcpu/pkg/api"
    "github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
    "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
    "github.com/rs/zerolog/log"
)

// pdfcpuEngine implements Engine on top of pdfcpu's in-memory context API.
type pdfcpuEngine struct {
    conf *model.Configuration
}

// NewPdfcpuEngine returns the production Engine backed by pdfcpu. Relaxed
// validation keeps slightly malformed but readable documents workable.
func NewPdfcpuEngine() Engine {
    conf := model.NewDefaultConfiguration()
    conf.ValidationMode = model.ValidationRelaxed
    return &pdfcpuEngine{conf: conf}
}

type pdfcpuDoc struct {
    ctx   *model.Context
    pages int
}

func (d *pdfcpuDoc) PageCount() int { return d.pages }
func (d *pdfcpuDoc) Close()         { d.ctx = nil }

// pdfcpuPage references one page of a loaded source. The actual page
// extraction is deferred to Save so consecutive pages of the same source
// can be pulled out in a single pdfcpu pass.
type pdfcpuPage struct {
    doc      *pdfcpuDoc
    oneBased int
}

type pdfcpuOutput struct {
    pages []*pdfcpuPage
}

func (e *pdfcpuEngine) Load(data []byte) (Document, error) {
    ctx, err := api.ReadContext(bytes.NewReader(data), e.conf)
    if err != nil {
        return nil, fmt.Errorf("read pdf: %w", err)
    }
    if err := api.ValidateContext(ctx); err != nil {
        return nil, fmt.Errorf("validate pdf: %w", err)
    }
    return &pdfcpuDoc{ctx: ctx, pages: ctx.PageCount}, nil
}

func (e *pdfcpuEngine) NewOutput() Output { return &pdfcpuOutput{} }

func (e *pdfcpuEngine) CopyPages(src Document, zeroBased []int) ([]Page, error) {
    d, ok := src.(*pdfcpuDoc)
    if !ok || d.ctx == nil {
        return nil, fmt.Errorf("source is not an open pdfcpu document")
    }
    out := make([]Page, 0, len(zeroBased))
    for _, idx := range zeroBased {
        if idx < 0 || idx >= d.pages {
            return nil, fmt.Errorf("page index %d out of bounds (0..%d)", idx, d.pages-1)
        }
        out = append(out, &pdfcpuPage{doc: d, oneBased: idx + 1})
    }
    return out, nil
}

func (e *pdfcpuEngine) AppendPage(out Output, p Page) error {
    o, ok := out.(*pdfcpuOutput)
    if !ok {
        return fmt.Errorf("output is not a pdfcpu document")
    }
    pg, ok := p.(*pdfcpuPage)
    if !ok {
        return fmt.Errorf("page handle is not a pdfcpu page")
    }
    o.pages = append(o.pages, pg)
    return nil
}

// Save materializes the output. Appended pages are grouped into maximal
// runs that share a source and ascend strictly, each run is extracted with
// one pdfcpu pass, and the run documents are merged in order. Grouping
// depends only on the append sequence, so the batch size used upstream can
// never change the page order of the result.
func (e *pdfcpuEngine) Save(out Output) ([]byte, error) {
    o, ok := out.(*pdfcpuOutput)
    if !ok {
        return nil, fmt.Errorf("output is not a pdfcpu document")
    }
    if len(o.pages) == 0 {
        return nil, fmt.Errorf("output document has no pages")
    }

    type run struct {
        doc   *pdfcpuDoc
        pages []int
    }
    var runs []run
    for _, pg := range o.pages {
        n := len(runs)
        if n > 0 && runs[n-1].doc == pg.doc && pg.oneBased > runs[n-1].pages[len(runs[n-1].pages)-1] {
            runs[n-1].pages = append(runs[n-1].pages, pg.oneBased)
            continue
        }
        runs = append(runs, run{doc: pg.doc, pages: []int{pg.oneBased}})
    }

    bufs := make([]*bytes.Buffer, 0, len(runs))
    for _, r := range runs {
        if r.doc.ctx == nil {
            return nil, fmt.Errorf("source document closed before save")
        }
        extracted, err := pdfcpu.ExtractPages(r.doc.ctx, r.pages, false)
        if err != nil {
            return nil, fmt.Errorf("extract pages %v: %w", r.pages, err)
        }
        var buf bytes.Buffer
        if err := api.WriteContext(extracted, &buf); err != nil {
            return nil, fmt.Errorf("write extracted pages: %w", err)
        }
        bufs = append(bufs, &buf)
    }

    if len(bufs) == 1 {
        return bufs[0].Bytes(), nil
    }

    readers := make([]io.ReadSeeker, len(bufs))
    for i, b := range bufs {
        readers[i] = bytes.NewReader(b.Bytes())
    }
    var merged bytes.Buffer
    if err := api.MergeRaw(readers, &merged, false, e.conf); err != nil {
        return nil, fmt.Errorf("merge page runs: %w", err)
    }
    log.Debug().Int("pages", len(o.pages)).Int("runs", len(runs)).Msg("output document serialized")
    return merged.Bytes(), nil
}
