package ops

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "testing"
    "time"

    "github.com/local/pdftoolkit/internal/assembler"
    "github.com/local/pdftoolkit/internal/pdf/pdftest"
    "github.com/local/pdftoolkit/internal/selection"
    "github.com/local/pdftoolkit/internal/store"
)

type mapReader map[string][]byte

func (m mapReader) Read(_ context.Context, ref string) ([]byte, error) {
    b, ok := m[ref]
    if !ok {
        return nil, fmt.Errorf("unknown ref %s", ref)
    }
    return b, nil
}

func newTestRunner(blobs mapReader) *Runner {
    opts := assembler.Options{BatchSize: 100, MaxReadRetries: 1, ReadRetryBackoff: time.Millisecond}
    return NewRunner(&pdftest.Engine{}, blobs, store.NewMemoryStatus(time.Minute), opts)
}

func TestMerge(t *testing.T) {
    r := newTestRunner(mapReader{
        "a.pdf": pdftest.Source("A", 2),
        "b.pdf": pdftest.Source("B", 3),
        "c.pdf": pdftest.Source("C", 1),
    })
    res, err := r.Merge(context.Background(), []string{"a.pdf", "b.pdf", "c.pdf"})
    if err != nil {
        t.Fatalf("merge failed: %v", err)
    }
    want := "A#1;A#2;B#1;B#2;B#3;C#1"
    if string(res.Data) != want {
        t.Errorf("merged pages = %q, want %q", res.Data, want)
    }
    if pdftest.PageCount(res.Data) != 6 {
        t.Errorf("page count = %d, want 6", pdftest.PageCount(res.Data))
    }
    wantName := fmt.Sprintf("merged-pdf-%s.pdf", time.Now().Format("2006-01-02"))
    if res.Filename != wantName {
        t.Errorf("filename = %q, want %q", res.Filename, wantName)
    }

    st, ok, err := r.Status(context.Background(), res.ID)
    if err != nil || !ok {
        t.Fatalf("status lookup failed: ok=%v err=%v", ok, err)
    }
    if st.State != store.StateSucceeded || st.Progress != 100 {
        t.Errorf("status = %+v, want succeeded/100", st)
    }
}

func TestMergeRespectsFileOrder(t *testing.T) {
    r := newTestRunner(mapReader{
        "a.pdf": pdftest.Source("A", 1),
        "b.pdf": pdftest.Source("B", 1),
    })
    res, err := r.Merge(context.Background(), []string{"b.pdf", "a.pdf"})
    if err != nil {
        t.Fatal(err)
    }
    if string(res.Data) != "B#1;A#1" {
        t.Errorf("merged pages = %q, want B before A", res.Data)
    }
}

func TestMergeNeedsTwoFiles(t *testing.T) {
    r := newTestRunner(mapReader{"a.pdf": pdftest.Source("A", 2)})
    if _, err := r.Merge(context.Background(), []string{"a.pdf"}); !errors.Is(err, ErrTooFewSources) {
        t.Fatalf("expected ErrTooFewSources, got %v", err)
    }
}

func TestSplit(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 10)})
    res, err := r.Split(context.Background(), "doc.pdf", "2,4-6")
    if err != nil {
        t.Fatalf("split failed: %v", err)
    }
    if string(res.Data) != "A#2;A#4;A#5;A#6" {
        t.Errorf("split pages = %q", res.Data)
    }
    if res.Filename != "doc-pages-2,4-6.pdf" {
        t.Errorf("filename = %q", res.Filename)
    }
}

func TestSplitOutOfRange(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 10)})
    _, err := r.Split(context.Background(), "doc.pdf", "1,11")
    var oor *selection.OutOfRangeError
    if !errors.As(err, &oor) {
        t.Fatalf("expected OutOfRangeError, got %v", err)
    }
    msg := UserMessage(err)
    if !strings.Contains(msg, "11") {
        t.Errorf("user message should name the offending page: %q", msg)
    }
}

func TestRemove(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 10)})
    res, err := r.Remove(context.Background(), "doc.pdf", "1,10")
    if err != nil {
        t.Fatalf("remove failed: %v", err)
    }
    if pdftest.PageCount(res.Data) != 8 {
        t.Errorf("page count = %d, want 8", pdftest.PageCount(res.Data))
    }
    if string(res.Data) != "A#2;A#3;A#4;A#5;A#6;A#7;A#8;A#9" {
        t.Errorf("retained pages = %q", res.Data)
    }
    if res.Filename != "doc_pages_removed.pdf" {
        t.Errorf("filename = %q", res.Filename)
    }
}

func TestRemoveAllPagesRejected(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 5)})
    _, err := r.Remove(context.Background(), "doc.pdf", "1-5")
    if !errors.Is(err, selection.ErrWouldRemoveAllPages) {
        t.Fatalf("expected ErrWouldRemoveAllPages, got %v", err)
    }
}

func TestSplitAllMalformedRangeRejected(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 5)})
    _, err := r.Split(context.Background(), "doc.pdf", "abc")
    if !errors.Is(err, selection.ErrEmptySelection) {
        t.Fatalf("expected ErrEmptySelection, got %v", err)
    }
}

func TestRunnerSingleFlight(t *testing.T) {
    r := newTestRunner(mapReader{"doc.pdf": pdftest.Source("A", 5)})
    r.guard <- struct{}{} // occupy the slot
    _, err := r.Split(context.Background(), "doc.pdf", "1-2")
    if !errors.Is(err, ErrBusy) {
        t.Fatalf("expected ErrBusy, got %v", err)
    }
    <-r.guard
    if _, err := r.Split(context.Background(), "doc.pdf", "1-2"); err != nil {
        t.Fatalf("expected success after release, got %v", err)
    }
}

func TestAcknowledgeReturnsToIdle(t *testing.T) {
    r := newTestRunner(mapReader{
        "a.pdf": pdftest.Source("A", 1),
        "b.pdf": pdftest.Source("B", 1),
    })
    res, err := r.Merge(context.Background(), []string{"a.pdf", "b.pdf"})
    if err != nil {
        t.Fatal(err)
    }
    if err := r.Acknowledge(context.Background(), res.ID); err != nil {
        t.Fatal(err)
    }
    st, ok, _ := r.Status(context.Background(), res.ID)
    if !ok || st.State != store.StateIdle {
        t.Errorf("state after ack = %v, want idle", st.State)
    }
}

func TestBaseName(t *testing.T) {
    cases := map[string]string{
        "reports/annual.pdf":            "annual",
        "file:///tmp/x/scan.pdf":        "scan",
        "s3://bucket/folder/doc.pdf":    "doc",
        "https://host/a/b/paper.pdf":    "paper",
        "doc.pdf#page=3":                "doc",
        "":                              "document",
    }
    for in, want := range cases {
        if got := baseName(in); got != want {
            t.Errorf("baseName(%q) = %q, want %q", in, got, want)
        }
    }
}
