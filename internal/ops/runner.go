package ops

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdftoolkit/internal/assembler"
    "github.com/local/pdftoolkit/internal/deliver"
    "github.com/local/pdftoolkit/internal/metrics"
    "github.com/local/pdftoolkit/internal/pdf"
    "github.com/local/pdftoolkit/internal/store"
)

// ErrBusy means another operation is already assembling on this runner.
// One in-flight assembly at a time is the concurrency contract.
var ErrBusy = errors.New("another operation is in progress")

// ErrTooFewSources is the merge precondition failure.
var ErrTooFewSources = errors.New("merge needs at least two files")

// Runner composes parser, validator and assembler into the user-facing
// merge/split/remove operations and tracks their lifecycle in the status
// store.
type Runner struct {
    engine pdf.Engine
    reader assembler.Reader
    asm    *assembler.Assembler
    status store.StatusStore
    sinks  []deliver.Sink
    opts   assembler.Options

    // single-flight slot, same shape as a one-deep semaphore
    guard chan struct{}
}

func NewRunner(engine pdf.Engine, reader assembler.Reader, status store.StatusStore, opts assembler.Options, sinks ...deliver.Sink) *Runner {
    return &Runner{
        engine: engine,
        reader: reader,
        asm:    assembler.New(engine, reader),
        status: status,
        sinks:  sinks,
        opts:   opts,
        guard:  make(chan struct{}, 1),
    }
}

// Result is a finished operation: the output bytes plus the suggested
// download filename and any sink locations.
type Result struct {
    ID        string
    Filename  string
    Data      []byte
    Locations []string
}

func (r *Runner) acquire() (func(), bool) {
    select {
    case r.guard <- struct{}{}:
        return func() { <-r.guard }, true
    default:
        return nil, false
    }
}

// Acknowledge returns a terminal operation to idle once the caller has
// consumed the result or shown the error.
func (r *Runner) Acknowledge(ctx context.Context, opID string) error {
    st, ok, err := r.status.Get(ctx, opID)
    if err != nil { return err }
    if !ok || !st.State.Terminal() {
        return nil
    }
    st.State = store.StateIdle
    st.Progress = 0
    st.Message = ""
    return r.status.Set(ctx, opID, st)
}

// Status exposes the stored snapshot for an operation ID.
func (r *Runner) Status(ctx context.Context, opID string) (store.Status, bool, error) {
    return r.status.Get(ctx, opID)
}

// run drives one operation through the state machine. buildPlan performs
// the cheap validation phase; any error there aborts before I/O-heavy
// assembly starts.
func (r *Runner) run(ctx context.Context, op string, buildPlan func(context.Context) (assembler.Plan, string, error)) (*Result, error) {
    release, ok := r.acquire()
    if !ok {
        return nil, ErrBusy
    }
    defer release()

    opID := uuid.NewString()
    begin := time.Now()
    r.setStatus(ctx, opID, store.Status{Op: op, State: store.StateValidating, Progress: 10, Message: "validating selection", Start: &begin})

    plan, filename, err := buildPlan(ctx)
    if err != nil {
        r.finish(ctx, opID, op, store.StateFailed, filename, begin, err)
        return nil, err
    }

    r.setStatus(ctx, opID, store.Status{Op: op, State: store.StateAssembling, Progress: 30, Message: "assembling document", Filename: filename, Start: &begin})
    metrics.OpStarted()
    data, err := r.asm.Assemble(ctx, plan, r.opts)
    metrics.OpFinished()
    if err != nil {
        state := store.StateFailed
        if errors.Is(err, assembler.ErrCancelled) {
            state = store.StateCancelled
        }
        r.finish(ctx, opID, op, state, filename, begin, err)
        return nil, err
    }

    res := &Result{ID: opID, Filename: filename, Data: data}
    for _, sink := range r.sinks {
        loc, err := sink.Deliver(ctx, filename, data)
        if err != nil {
            // The download response still carries the bytes; sink delivery
            // is best effort.
            log.Warn().Err(err).Str("op", op).Str("filename", filename).Msg("result delivery failed")
            continue
        }
        res.Locations = append(res.Locations, loc)
    }

    r.finish(ctx, opID, op, store.StateSucceeded, filename, begin, nil)
    return res, nil
}

func (r *Runner) setStatus(ctx context.Context, opID string, st store.Status) {
    if err := r.status.Set(ctx, opID, st); err != nil {
        log.Warn().Err(err).Str("op_id", opID).Msg("status update failed")
    }
}

func (r *Runner) finish(ctx context.Context, opID, op string, state store.State, filename string, begin time.Time, cause error) {
    end := time.Now()
    st := store.Status{Op: op, State: state, Filename: filename, Start: &begin, End: &end}
    switch state {
    case store.StateSucceeded:
        st.Progress = 100
        st.Message = "completed"
    case store.StateCancelled:
        st.Message = "cancelled"
    default:
        st.Message = UserMessage(cause)
    }
    r.setStatus(ctx, opID, st)
    result := string(state)
    metrics.ObserveOperation(op, result, end.Sub(begin))
    if cause != nil {
        log.Error().Err(cause).Str("op", op).Str("op_id", opID).Msg("operation did not succeed")
    } else {
        log.Info().Str("op", op).Str("op_id", opID).Str("filename", filename).Dur("took", end.Sub(begin)).Msg("operation succeeded")
    }
}

// probe reads and loads a source to learn its page count. A count of 0 is
// treated as unreadable.
func (r *Runner) probe(ctx context.Context, ref string) (int, error) {
    data, err := r.reader.Read(ctx, ref)
    if err != nil {
        return 0, &assembler.SourceUnreadableError{Ref: ref, Attempts: 1, Err: err}
    }
    doc, err := r.engine.Load(data)
    if err != nil {
        return 0, &assembler.InvalidDocumentError{Ref: ref, Err: err}
    }
    defer doc.Close()
    n := doc.PageCount()
    if n <= 0 {
        return 0, &assembler.InvalidDocumentError{Ref: ref, Err: errors.New("document has no readable pages")}
    }
    return n, nil
}
