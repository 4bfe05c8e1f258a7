package assembler

import (
    "context"
    "errors"
    "fmt"
    "testing"
    "time"

    "github.com/local/pdftoolkit/internal/pagerange"
    "github.com/local/pdftoolkit/internal/pdf/pdftest"
)

// fakeReader serves byte blobs by ref and can fail the first N reads of a
// ref to exercise the retry path.
type fakeReader struct {
    blobs    map[string][]byte
    failures map[string]int
    reads    int
}

func (r *fakeReader) Read(_ context.Context, ref string) ([]byte, error) {
    r.reads++
    if n := r.failures[ref]; n > 0 {
        r.failures[ref] = n - 1
        return nil, fmt.Errorf("transient read failure for %s", ref)
    }
    b, ok := r.blobs[ref]
    if !ok {
        return nil, fmt.Errorf("unknown ref %s", ref)
    }
    return b, nil
}

func testOptions() Options {
    return Options{
        BatchSize:        100,
        MaxReadRetries:   3,
        ReadRetryBackoff: time.Millisecond,
    }
}

func TestAssembleOrder(t *testing.T) {
    eng := &pdftest.Engine{}
    rd := &fakeReader{blobs: map[string][]byte{
        "a.pdf": pdftest.Source("A", 10),
        "b.pdf": pdftest.Source("B", 3),
    }}
    asm := New(eng, rd)

    plan := Plan{
        {Source: "a.pdf", Pages: pagerange.PageSet{2, 4, 5, 6}},
        {Source: "b.pdf", Pages: pagerange.PageSet{1, 3}},
    }
    out, err := asm.Assemble(context.Background(), plan, testOptions())
    if err != nil {
        t.Fatalf("assemble failed: %v", err)
    }
    want := "A#2;A#4;A#5;A#6;B#1;B#3"
    if string(out) != want {
        t.Errorf("output order = %q, want %q", out, want)
    }
}

func TestAssembleBatchingTransparency(t *testing.T) {
    blobs := map[string][]byte{"a.pdf": pdftest.Source("A", 9)}
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1, 2, 3, 4, 5, 6, 7, 8, 9}}}

    one := &pdftest.Engine{}
    big, err := New(one, &fakeReader{blobs: blobs}).Assemble(context.Background(), plan, testOptions())
    if err != nil {
        t.Fatalf("single batch assemble failed: %v", err)
    }

    small := &pdftest.Engine{}
    opts := testOptions()
    opts.BatchSize = 2
    chunked, err := New(small, &fakeReader{blobs: blobs}).Assemble(context.Background(), plan, opts)
    if err != nil {
        t.Fatalf("chunked assemble failed: %v", err)
    }

    if string(big) != string(chunked) {
        t.Errorf("batch size changed output: %q vs %q", big, chunked)
    }
    if len(one.CopyBatches) != 1 || len(small.CopyBatches) != 5 {
        t.Errorf("unexpected batch counts: %v vs %v", one.CopyBatches, small.CopyBatches)
    }
}

// The engine materializes pages from their source documents only at Save,
// so sources must stay open until Save returns and be released afterwards.
func TestAssembleKeepsSourcesOpenThroughSave(t *testing.T) {
    eng := &pdftest.Engine{}
    rd := &fakeReader{blobs: map[string][]byte{
        "a.pdf": pdftest.Source("A", 3),
        "b.pdf": pdftest.Source("B", 2),
    }}
    plan := Plan{
        {Source: "a.pdf", Pages: pagerange.PageSet{1, 3}},
        {Source: "b.pdf", Pages: pagerange.PageSet{2}},
    }
    out, err := New(eng, rd).Assemble(context.Background(), plan, testOptions())
    if err != nil {
        t.Fatalf("assemble failed: %v", err)
    }
    if string(out) != "A#1;A#3;B#2" {
        t.Errorf("output = %q", out)
    }
    if eng.Open != 0 {
        t.Errorf("%d source documents left open after assemble", eng.Open)
    }
}

func TestAssembleClosesSourcesOnFailure(t *testing.T) {
    eng := &pdftest.Engine{SaveErr: errors.New("disk full")}
    rd := &fakeReader{blobs: map[string][]byte{"a.pdf": pdftest.Source("A", 2)}}
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1, 2}}}
    if _, err := New(eng, rd).Assemble(context.Background(), plan, testOptions()); err == nil {
        t.Fatal("expected save failure")
    }
    if eng.Open != 0 {
        t.Errorf("%d source documents left open after failed assemble", eng.Open)
    }
}

func TestAssembleLargeFileBatchDowngrade(t *testing.T) {
    eng := &pdftest.Engine{}
    rd := &fakeReader{blobs: map[string][]byte{"big.pdf": pdftest.Source("A", 6)}}
    plan := Plan{{Source: "big.pdf", Pages: pagerange.PageSet{1, 2, 3, 4, 5, 6}}}

    opts := testOptions()
    opts.LargeFileBytes = 4 // the fake blob is bigger than this
    opts.LargeFileBatchSize = 2
    opts.LargeFileDelay = time.Millisecond

    out, err := New(eng, rd).Assemble(context.Background(), plan, opts)
    if err != nil {
        t.Fatalf("assemble failed: %v", err)
    }
    if string(out) != "A#1;A#2;A#3;A#4;A#5;A#6" {
        t.Errorf("downgrade changed output order: %q", out)
    }
    want := []int{2, 2, 2}
    if len(eng.CopyBatches) != len(want) {
        t.Fatalf("batches = %v, want %v", eng.CopyBatches, want)
    }
    for i, n := range want {
        if eng.CopyBatches[i] != n {
            t.Errorf("batch %d size = %d, want %d", i, eng.CopyBatches[i], n)
        }
    }
}

func TestOptionsDefaulting(t *testing.T) {
    got := Options{InterBatchDelay: -1, MaxReadRetries: -1, LargeFileDelay: -1}.withDefaults()
    def := DefaultOptions()
    if got.InterBatchDelay != def.InterBatchDelay || got.MaxReadRetries != def.MaxReadRetries || got.LargeFileDelay != def.LargeFileDelay {
        t.Errorf("negative fields should take defaults: %+v", got)
    }

    // Zero delay and zero retries are explicit choices, not "unset".
    got = Options{BatchSize: 10, ReadRetryBackoff: time.Second}.withDefaults()
    if got.InterBatchDelay != 0 || got.MaxReadRetries != 0 || got.LargeFileDelay != 0 {
        t.Errorf("zero delay/retries should be kept: %+v", got)
    }
    if got.BatchSize != 10 || got.LargeFileBatchSize != def.LargeFileBatchSize || got.LargeFileBytes != def.LargeFileBytes {
        t.Errorf("sizes should default when zero: %+v", got)
    }
}

func TestAssembleRetriesTransientReads(t *testing.T) {
    eng := &pdftest.Engine{}
    rd := &fakeReader{
        blobs:    map[string][]byte{"a.pdf": pdftest.Source("A", 2)},
        failures: map[string]int{"a.pdf": 2},
    }
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1, 2}}}
    out, err := New(eng, rd).Assemble(context.Background(), plan, testOptions())
    if err != nil {
        t.Fatalf("assemble failed despite retries: %v", err)
    }
    if pdftest.PageCount(out) != 2 {
        t.Errorf("page count = %d, want 2", pdftest.PageCount(out))
    }
    if rd.reads != 3 {
        t.Errorf("reads = %d, want 3", rd.reads)
    }
}

func TestAssembleSourceUnreadable(t *testing.T) {
    rd := &fakeReader{
        blobs:    map[string][]byte{"a.pdf": pdftest.Source("A", 2)},
        failures: map[string]int{"a.pdf": 100},
    }
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1}}}
    opts := testOptions()
    opts.MaxReadRetries = 1
    _, err := New(&pdftest.Engine{}, rd).Assemble(context.Background(), plan, opts)
    var su *SourceUnreadableError
    if !errors.As(err, &su) {
        t.Fatalf("expected SourceUnreadableError, got %v", err)
    }
    if su.Attempts != 2 || rd.reads != 2 {
        t.Errorf("attempts = %d, reads = %d, want 2 and 2", su.Attempts, rd.reads)
    }
}

func TestAssembleInvalidDocument(t *testing.T) {
    rd := &fakeReader{blobs: map[string][]byte{"junk.bin": []byte("not a pdf at all")}}
    plan := Plan{{Source: "junk.bin", Pages: pagerange.PageSet{1}}}
    _, err := New(&pdftest.Engine{}, rd).Assemble(context.Background(), plan, testOptions())
    var inv *InvalidDocumentError
    if !errors.As(err, &inv) {
        t.Fatalf("expected InvalidDocumentError, got %v", err)
    }
    if inv.Ref != "junk.bin" {
        t.Errorf("ref = %q, want junk.bin", inv.Ref)
    }
}

func TestAssembleSerializationFailure(t *testing.T) {
    eng := &pdftest.Engine{SaveErr: errors.New("disk full")}
    rd := &fakeReader{blobs: map[string][]byte{"a.pdf": pdftest.Source("A", 1)}}
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1}}}
    _, err := New(eng, rd).Assemble(context.Background(), plan, testOptions())
    var se *SerializationError
    if !errors.As(err, &se) {
        t.Fatalf("expected SerializationError, got %v", err)
    }
}

func TestAssembleCancelled(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    rd := &fakeReader{blobs: map[string][]byte{"a.pdf": pdftest.Source("A", 5)}}
    plan := Plan{{Source: "a.pdf", Pages: pagerange.PageSet{1, 2, 3}}}
    _, err := New(&pdftest.Engine{}, rd).Assemble(ctx, plan, testOptions())
    if !errors.Is(err, ErrCancelled) {
        t.Fatalf("expected ErrCancelled, got %v", err)
    }
}

func TestAssembleEmptyPlan(t *testing.T) {
    _, err := New(&pdftest.Engine{}, &fakeReader{}).Assemble(context.Background(), Plan{}, testOptions())
    if err == nil {
        t.Fatal("expected error for empty plan")
    }
}
