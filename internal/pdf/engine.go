package pdf

// Engine abstracts the PDF backend the assembler drives. Implementations
// own the document handles; callers only thread them between calls.
// Page indices at this boundary are 0-based.
type Engine interface {
    // Load parses raw PDF bytes into a source document handle.
    Load(data []byte) (Document, error)
    // NewOutput creates an empty output document.
    NewOutput() Output
    // CopyPages copies the given pages out of src, preserving the order of
    // indices exactly.
    CopyPages(src Document, zeroBased []int) ([]Page, error)
    // AppendPage appends one copied page to an output document.
    AppendPage(out Output, p Page) error
    // Save serializes the output document to PDF bytes.
    Save(out Output) ([]byte, error)
}

// Document is a loaded source document.
type Document interface {
    PageCount() int
    Close()
}

// Page is an opaque copied-page handle, only valid with the engine that
// produced it.
type Page interface{}

// Output is an opaque in-progress output document handle.
type Output interface{}
