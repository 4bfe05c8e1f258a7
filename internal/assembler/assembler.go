package assembler

import (
    "context"
    "fmt"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdftoolkit/internal/metrics"
    "github.com/local/pdftoolkit/internal/pagerange"
    "github.com/local/pdftoolkit/internal/pdf"
)

// Reader resolves a source reference to its raw bytes. Reads may fail
// transiently; the assembler retries them.
type Reader interface {
    Read(ctx context.Context, ref string) ([]byte, error)
}

// Item pairs one source with the pages to copy out of it, in order.
type Plan []Item

type Item struct {
    Source string
    Pages  pagerange.PageSet
}

// TotalPages returns the number of pages the plan will copy.
func (p Plan) TotalPages() int {
    n := 0
    for _, it := range p {
        n += len(it.Pages)
    }
    return n
}

// Options controls batching and read-retry behavior. Batch size bounds peak
// memory; it never affects the page order of the result.
//
// Zero is a valid explicit value for InterBatchDelay, LargeFileDelay and
// MaxReadRetries (no pacing, no retries); only negative values fall back
// to the defaults. The sizes and the backoff have no meaningful zero, so
// zero or negative means unset for those. Callers wanting the recognized
// defaults start from DefaultOptions().
type Options struct {
    BatchSize        int
    InterBatchDelay  time.Duration
    MaxReadRetries   int
    ReadRetryBackoff time.Duration

    // Sources larger than LargeFileBytes switch to the large-file batch
    // size and delay.
    LargeFileBytes     int64
    LargeFileBatchSize int
    LargeFileDelay     time.Duration
}

// DefaultOptions returns the recognized defaults.
func DefaultOptions() Options {
    return Options{
        BatchSize:          100,
        InterBatchDelay:    10 * time.Millisecond,
        MaxReadRetries:     3,
        ReadRetryBackoff:   time.Second,
        LargeFileBytes:     50 << 20,
        LargeFileBatchSize: 50,
        LargeFileDelay:     100 * time.Millisecond,
    }
}

func (o Options) withDefaults() Options {
    d := DefaultOptions()
    if o.BatchSize <= 0 { o.BatchSize = d.BatchSize }
    if o.InterBatchDelay < 0 { o.InterBatchDelay = d.InterBatchDelay }
    if o.MaxReadRetries < 0 { o.MaxReadRetries = d.MaxReadRetries }
    if o.ReadRetryBackoff <= 0 { o.ReadRetryBackoff = d.ReadRetryBackoff }
    if o.LargeFileBytes <= 0 { o.LargeFileBytes = d.LargeFileBytes }
    if o.LargeFileBatchSize <= 0 { o.LargeFileBatchSize = d.LargeFileBatchSize }
    if o.LargeFileDelay < 0 { o.LargeFileDelay = d.LargeFileDelay }
    return o
}

// Assembler rebuilds a new document from selected pages of one or more
// sources, strictly sequentially and in bounded-size batches.
type Assembler struct {
    engine pdf.Engine
    reader Reader
}

func New(engine pdf.Engine, reader Reader) *Assembler {
    return &Assembler{engine: engine, reader: reader}
}

// Assemble executes the plan and returns the serialized output document.
// Any failure aborts the whole call; no partial output is ever returned and
// the call is not resumable. Cancellation is honored between batches and
// between plan items and surfaces as ErrCancelled.
func (a *Assembler) Assemble(ctx context.Context, plan Plan, opts Options) ([]byte, error) {
    if len(plan) == 0 {
        return nil, fmt.Errorf("empty selection plan")
    }
    opts = opts.withDefaults()

    out := a.engine.NewOutput()
    // Page handles may reference their source document until Save
    // materializes them, so sources stay open for the whole assembly and
    // are released together afterwards.
    var docs []pdf.Document
    defer func() {
        for _, d := range docs { d.Close() }
    }()
    for _, item := range plan {
        doc, err := a.copySource(ctx, out, item, opts)
        if doc != nil {
            docs = append(docs, doc)
        }
        if err != nil {
            return nil, err
        }
    }

    data, err := a.engine.Save(out)
    if err != nil {
        return nil, &SerializationError{Err: err}
    }
    metrics.ObserveOutputSize(len(data))
    log.Info().Int("sources", len(plan)).Int("pages", plan.TotalPages()).Int("bytes", len(data)).Msg("assembly complete")
    return data, nil
}

// copySource copies one plan item into out. The loaded document is
// returned open, even on a batch failure, so the caller controls when the
// handles its pages hold become invalid.
func (a *Assembler) copySource(ctx context.Context, out pdf.Output, item Item, opts Options) (pdf.Document, error) {
    data, err := a.readWithRetry(ctx, item.Source, opts)
    if err != nil {
        return nil, err
    }

    batchSize := opts.BatchSize
    delay := opts.InterBatchDelay
    if int64(len(data)) > opts.LargeFileBytes {
        batchSize = opts.LargeFileBatchSize
        delay = opts.LargeFileDelay
        log.Debug().Str("source", item.Source).Int("bytes", len(data)).Msg("large source, reduced batch size")
    }

    doc, err := a.engine.Load(data)
    if err != nil {
        return nil, &InvalidDocumentError{Ref: item.Source, Err: err}
    }

    indices := item.Pages.ZeroBased()
    for start := 0; start < len(indices); start += batchSize {
        if start > 0 {
            // Yield between batches to relieve memory pressure; this is
            // also the cancellation point.
            if err := pause(ctx, delay); err != nil {
                return doc, err
            }
        } else if ctx.Err() != nil {
            return doc, ErrCancelled
        }

        end := start + batchSize
        if end > len(indices) { end = len(indices) }
        batch := indices[start:end]

        pages, err := a.engine.CopyPages(doc, batch)
        if err != nil {
            return doc, fmt.Errorf("copy pages from %s: %w", item.Source, err)
        }
        for _, p := range pages {
            if err := a.engine.AppendPage(out, p); err != nil {
                return doc, fmt.Errorf("append page from %s: %w", item.Source, err)
            }
        }
        metrics.IncBatch()
        metrics.AddPagesCopied(len(batch))
    }
    return doc, nil
}

// readWithRetry makes the initial read plus up to MaxReadRetries retries at
// a fixed backoff.
func (a *Assembler) readWithRetry(ctx context.Context, ref string, opts Options) ([]byte, error) {
    var lastErr error
    attempts := opts.MaxReadRetries + 1
    for i := 0; i < attempts; i++ {
        if i > 0 {
            metrics.IncReadRetry()
            log.Warn().Str("source", ref).Int("attempt", i+1).Err(lastErr).Msg("retrying source read")
            if err := pause(ctx, opts.ReadRetryBackoff); err != nil {
                return nil, err
            }
        }
        data, err := a.reader.Read(ctx, ref)
        if err == nil {
            return data, nil
        }
        if ctx.Err() != nil {
            return nil, ErrCancelled
        }
        lastErr = err
    }
    return nil, &SourceUnreadableError{Ref: ref, Attempts: attempts, Err: lastErr}
}

func pause(ctx context.Context, d time.Duration) error {
    if d <= 0 {
        if ctx.Err() != nil { return ErrCancelled }
        return nil
    }
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ErrCancelled
    case <-t.C:
        return nil
    }
}
