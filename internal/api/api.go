package api

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "os"
    "strconv"
    "strings"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdftoolkit/internal/assembler"
    "github.com/local/pdftoolkit/internal/config"
    "github.com/local/pdftoolkit/internal/ops"
    "github.com/local/pdftoolkit/internal/selection"
    "github.com/local/pdftoolkit/internal/source"
    "github.com/local/pdftoolkit/internal/thumbnail"
)

const maxMultipartMemory = 64 << 20 // max memory before temp files

// API exposes merge/split/remove over HTTP. Uploads are validated
// (size cap, magic-byte sniff), staged to the upload dir, run through the
// operation runner, and the result returned as a PDF attachment.
type API struct {
    runner    *ops.Runner
    limits    config.LimitsConfig
    uploadDir string
}

func New(runner *ops.Runner, limits config.LimitsConfig) *API {
    dir := os.Getenv("UPLOAD_DIR")
    if dir == "" { dir = "uploads" }
    return &API{runner: runner, limits: limits, uploadDir: strings.TrimRight(dir, "/")}
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
    mux.HandleFunc("/api/merge", a.handleMerge)
    mux.HandleFunc("/api/split", a.handleSplit)
    mux.HandleFunc("/api/remove", a.handleRemove)
    mux.HandleFunc("/api/operations/", a.handleOperation)
    mux.HandleFunc("/api/thumbnail", a.handleThumbnail)
}

// mergeReq is the JSON alternative to multipart upload: sources already
// reachable by the service (paths, file://, http(s)://, s3://).
type mergeReq struct {
    Files []string `json:"files"`
}

type rangeReq struct {
    File   string `json:"file"`
    Ranges string `json:"ranges"`
}

func (a *API) handleMerge(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }

    var refs []string
    if isJSON(r) {
        defer r.Body.Close()
        var req mergeReq
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            httpError(w, http.StatusBadRequest, "invalid json"); return
        }
        refs = req.Files
    } else {
        staged, cleanup, err := a.stageUploads(r, "files")
        if err != nil { a.writeOpError(w, err); return }
        defer cleanup()
        refs = staged
    }
    if len(refs) > a.limits.MaxMergeFiles {
        httpError(w, http.StatusBadRequest, fmt.Sprintf("too many files; the limit is %d", a.limits.MaxMergeFiles))
        return
    }

    res, err := a.runner.Merge(r.Context(), refs)
    if err != nil { a.writeOpError(w, err); return }
    a.writeResult(w, res)
}

func (a *API) handleSplit(w http.ResponseWriter, r *http.Request)  { a.handleRanged(w, r, a.runner.Split) }
func (a *API) handleRemove(w http.ResponseWriter, r *http.Request) { a.handleRanged(w, r, a.runner.Remove) }

// handleRanged is the shared shape of split and remove: one source plus a
// free-form ranges string.
func (a *API) handleRanged(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*ops.Result, error)) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }

    var ref, ranges string
    if isJSON(r) {
        defer r.Body.Close()
        var req rangeReq
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            httpError(w, http.StatusBadRequest, "invalid json"); return
        }
        ref, ranges = req.File, req.Ranges
        if ref == "" { httpError(w, http.StatusBadRequest, "missing file"); return }
    } else {
        staged, cleanup, err := a.stageUploads(r, "file")
        if err != nil { a.writeOpError(w, err); return }
        defer cleanup()
        ref = staged[0]
        ranges = r.FormValue("ranges")
    }

    res, err := op(r.Context(), ref, ranges)
    if err != nil { a.writeOpError(w, err); return }
    a.writeResult(w, res)
}

// handleOperation serves GET /api/operations/{id} status snapshots and
// DELETE to acknowledge a finished operation back to idle.
func (a *API) handleOperation(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/api/operations/")
    if id == "" || strings.Contains(id, "/") {
        http.NotFound(w, r); return
    }
    switch r.Method {
    case http.MethodGet:
        st, ok, err := a.runner.Status(r.Context(), id)
        if err != nil { httpError(w, http.StatusInternalServerError, "status lookup failed"); return }
        if !ok { http.NotFound(w, r); return }
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(st)
    case http.MethodDelete:
        if err := a.runner.Acknowledge(r.Context(), id); err != nil {
            httpError(w, http.StatusInternalServerError, "acknowledge failed"); return
        }
        w.WriteHeader(http.StatusNoContent)
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// handleThumbnail renders one page of an uploaded PDF as a JPEG data URI
// for the page grid. POST multipart: file (required), page, dpi, gray.
func (a *API) handleThumbnail(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
        httpError(w, http.StatusBadRequest, "invalid multipart form"); return
    }
    file, _, err := r.FormFile("file")
    if err != nil { httpError(w, http.StatusBadRequest, "missing file"); return }
    defer file.Close()
    data, err := io.ReadAll(file)
    if err != nil { httpError(w, http.StatusBadRequest, "read failed"); return }
    if err := source.CheckPDF(data, a.maxFileBytes()); err != nil {
        a.writeOpError(w, err); return
    }

    page := 1
    if v := r.FormValue("page"); v != "" {
        if n, err := strconv.Atoi(v); err == nil { page = n }
    }
    opts := thumbnail.DefaultOptions()
    if v := r.FormValue("dpi"); v != "" {
        if n, err := strconv.Atoi(v); err == nil { opts.DPI = n }
    }
    opts.Grayscale = r.FormValue("gray") == "on" || r.FormValue("gray") == "true"

    uri, err := thumbnail.RenderDataURI(data, page, opts)
    if err != nil {
        httpError(w, http.StatusUnprocessableEntity, fmt.Sprintf("render failed: %v", err))
        return
    }
    w.Header().Set("Content-Type", "application/json")
    _ = json.NewEncoder(w).Encode(map[string]any{"page": page, "data_uri": uri})
}

// stageUploads validates every file in the named multipart field and writes
// it under the upload dir with a uuid prefix to avoid collisions. The
// returned cleanup removes the staged files once the operation is done with
// them.
func (a *API) stageUploads(r *http.Request, field string) ([]string, func(), error) {
    if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
        return nil, nil, errBadRequest("invalid multipart form")
    }
    var headers = r.MultipartForm.File[field]
    if len(headers) == 0 {
        return nil, nil, errBadRequest("missing " + field)
    }
    if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
        return nil, nil, fmt.Errorf("create upload dir: %w", err)
    }

    var paths []string
    cleanup := func() {
        for _, p := range paths {
            if err := os.Remove(p); err != nil {
                log.Warn().Err(err).Str("path", p).Msg("staged upload not removed")
            }
        }
    }
    for _, hdr := range headers {
        f, err := hdr.Open()
        if err != nil { cleanup(); return nil, nil, errBadRequest("cannot open upload") }
        data, err := io.ReadAll(f)
        f.Close()
        if err != nil { cleanup(); return nil, nil, errBadRequest("read failed") }
        if err := source.CheckPDF(data, a.maxFileBytes()); err != nil {
            cleanup()
            return nil, nil, err
        }
        name := hdr.Filename
        if name == "" { name = "upload.pdf" }
        localPath := fmt.Sprintf("%s/%s_%s", a.uploadDir, uuid.NewString(), name)
        if err := os.WriteFile(localPath, data, 0o644); err != nil {
            cleanup()
            return nil, nil, fmt.Errorf("save upload: %w", err)
        }
        paths = append(paths, localPath)
    }
    return paths, cleanup, nil
}

func (a *API) maxFileBytes() int64 { return int64(a.limits.MaxFileMB) << 20 }

// writeResult streams the assembled document back as an attachment. The
// operation ID travels in a header so the caller can acknowledge it.
func (a *API) writeResult(w http.ResponseWriter, res *ops.Result) {
    w.Header().Set("Content-Type", "application/pdf")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
    w.Header().Set("X-Operation-Id", res.ID)
    if len(res.Locations) > 0 {
        w.Header().Set("X-Result-Location", res.Locations[0])
    }
    w.WriteHeader(http.StatusOK)
    if _, err := w.Write(res.Data); err != nil {
        log.Warn().Err(err).Str("filename", res.Filename).Msg("result write interrupted")
    }
}

// badRequestError carries a plain 400 message through the error path.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

// writeOpError maps an operation error to an HTTP status and a JSON body
// with the user-facing message.
func (a *API) writeOpError(w http.ResponseWriter, err error) {
    var bad *badRequestError
    if errors.As(err, &bad) {
        httpError(w, http.StatusBadRequest, bad.msg)
        return
    }
    httpError(w, statusFor(err), ops.UserMessage(err))
}

func statusFor(err error) int {
    var bad *badRequestError
    var oor *selection.OutOfRangeError
    var tooBig *source.FileTooLargeError
    var unreadable *assembler.SourceUnreadableError
    var invalid *assembler.InvalidDocumentError

    switch {
    case errors.As(err, &bad):
        return http.StatusBadRequest
    case errors.Is(err, ops.ErrBusy):
        return http.StatusConflict
    case errors.Is(err, ops.ErrTooFewSources),
        errors.Is(err, selection.ErrEmptySelection),
        errors.Is(err, selection.ErrWouldRemoveAllPages),
        errors.As(err, &oor):
        return http.StatusUnprocessableEntity
    case errors.Is(err, source.ErrNotAPDF):
        return http.StatusBadRequest
    case errors.As(err, &tooBig):
        return http.StatusRequestEntityTooLarge
    case errors.As(err, &unreadable), errors.As(err, &invalid):
        return http.StatusUnprocessableEntity
    default:
        return http.StatusInternalServerError
    }
}

func httpError(w http.ResponseWriter, code int, msg string) {
    if msg == "" {
        msg = http.StatusText(code)
    }
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func isJSON(r *http.Request) bool {
    return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
