package web

import (
    "bytes"
    "fmt"
    "html/template"
    "io"
    "mime/multipart"
    "net/http"
    "os"
    "path/filepath"
    "strings"
)

// Web serves the dashboard: cookie login plus thin proxies to the local
// API endpoints so the browser never talks to them directly.
type Web struct {
    tpl      *template.Template
    username string
    password string
    port     string
}

func New() *Web {
    // load templates
    tpl := template.Must(template.ParseGlob(filepath.Join("web", "templates", "*.html")))
    return &Web{
        tpl:      tpl,
        username: os.Getenv("WEB_USERNAME"),
        password: os.Getenv("WEB_PASSWORD"),
        port:     getenv("PORT", "8080"),
    }
}

func (w *Web) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/web/login", w.handleLogin)
    mux.HandleFunc("/web/logout", w.handleLogout)
    mux.HandleFunc("/web/", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/dashboard", w.requireAuth(w.handleDashboard))
    mux.HandleFunc("/web/merge", w.requireAuth(w.proxyOp("/api/merge")))
    mux.HandleFunc("/web/split", w.requireAuth(w.proxyOp("/api/split")))
    mux.HandleFunc("/web/remove", w.requireAuth(w.proxyOp("/api/remove")))
    mux.HandleFunc("/web/thumbnail", w.requireAuth(w.proxyOp("/api/thumbnail")))
    mux.HandleFunc("/web/progress/", w.requireAuth(w.handleProgress))
}

func (w *Web) render(wr http.ResponseWriter, name string, data any) {
    _ = w.tpl.ExecuteTemplate(wr, name, data)
}

func (w *Web) requireAuth(next http.HandlerFunc) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if w.username == "" || w.password == "" {
            http.Error(wr, "WEB_USERNAME/WEB_PASSWORD not set", http.StatusForbidden)
            return
        }
        c, err := r.Cookie("auth")
        if err != nil || c.Value != "1" {
            http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
            return
        }
        next(wr, r)
    }
}

func (w *Web) handleLogin(wr http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodGet:
        w.render(wr, "login.html", map[string]any{"Error": r.URL.Query().Get("error")})
    case http.MethodPost:
        if err := r.ParseForm(); err != nil { http.Redirect(wr, r, "/web/login?error=invalid+form", http.StatusSeeOther); return }
        if r.Form.Get("username") == w.username && r.Form.Get("password") == w.password {
            http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "1", Path: "/", HttpOnly: true})
            http.Redirect(wr, r, "/web/dashboard", http.StatusSeeOther)
            return
        }
        http.Redirect(wr, r, "/web/login?error=invalid+credentials", http.StatusSeeOther)
    default:
        wr.WriteHeader(http.StatusMethodNotAllowed)
    }
}

func (w *Web) handleLogout(wr http.ResponseWriter, r *http.Request) {
    http.SetCookie(wr, &http.Cookie{Name: "auth", Value: "", Path: "/", MaxAge: -1})
    http.Redirect(wr, r, "/web/login", http.StatusSeeOther)
}

func (w *Web) handleDashboard(wr http.ResponseWriter, r *http.Request) {
    w.render(wr, "dashboard.html", map[string]any{
        "Username": w.username,
    })
}

// proxyOp forwards a dashboard multipart form to the named API endpoint and
// streams the response back unchanged, so PDF attachments and JSON errors
// both pass through with their headers intact.
func (w *Web) proxyOp(apiPath string) http.HandlerFunc {
    return func(wr http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPost { wr.WriteHeader(http.StatusMethodNotAllowed); return }
        if err := r.ParseMultipartForm(64 << 20); err != nil { http.Error(wr, "invalid multipart form", 400); return }

        var b bytes.Buffer
        mw := multipart.NewWriter(&b)

        // Copy file parts. Merge posts several under "files"; split/remove
        // post one under "file".
        if r.MultipartForm != nil {
            for field, headers := range r.MultipartForm.File {
                for _, hdr := range headers {
                    f, err := hdr.Open()
                    if err != nil { http.Error(wr, "upload error", 500); return }
                    fw, err := mw.CreateFormFile(field, hdr.Filename)
                    if err != nil { f.Close(); http.Error(wr, "upload error", 500); return }
                    if _, err := io.Copy(fw, f); err != nil { f.Close(); http.Error(wr, "upload error", 500); return }
                    f.Close()
                }
            }
        }
        for _, k := range []string{"ranges", "page", "dpi", "gray"} {
            if v := r.FormValue(k); v != "" {
                _ = mw.WriteField(k, v)
            }
        }
        _ = mw.Close()

        url := fmt.Sprintf("http://127.0.0.1:%s%s", w.port, apiPath)
        req, _ := http.NewRequest(http.MethodPost, url, &b)
        req.Header.Set("Content-Type", mw.FormDataContentType())
        resp, err := http.DefaultClient.Do(req)
        if err != nil { http.Error(wr, "request failed", 500); return }
        defer resp.Body.Close()
        for _, h := range []string{"Content-Type", "Content-Disposition", "X-Operation-Id", "X-Result-Location"} {
            if v := resp.Header.Get(h); v != "" { wr.Header().Set(h, v) }
        }
        wr.WriteHeader(resp.StatusCode)
        io.Copy(wr, resp.Body)
    }
}

func (w *Web) handleProgress(wr http.ResponseWriter, r *http.Request) {
    opID := strings.TrimPrefix(r.URL.Path, "/web/progress/")
    url := fmt.Sprintf("http://127.0.0.1:%s/api/operations/%s", w.port, opID)
    resp, err := http.Get(url)
    if err != nil { http.Error(wr, "progress failed", 500); return }
    defer resp.Body.Close()
    wr.Header().Set("Content-Type", "application/json")
    wr.WriteHeader(resp.StatusCode)
    io.Copy(wr, resp.Body)
}

func getenv(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
