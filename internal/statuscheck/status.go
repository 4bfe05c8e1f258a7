package statuscheck

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
    "path/filepath"
    "time"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates readiness checks for the external dependencies shown
// on the dashboard: the status store, the results bucket and the local
// working directories.
type Checker struct {
    redis      RedisPinger
    s3Bucket   string
    uploadDir  string
    resultsDir string
}

// Options configures the Checker. Zero-valued fields mark the dependency
// as not configured rather than failing.
type Options struct {
    Redis      RedisPinger
    S3Bucket   string
    UploadDir  string
    ResultsDir string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
    StatusStore Status `json:"status_store"`
    S3          Status `json:"s3"`
    Uploads     Status `json:"uploads"`
    Results     Status `json:"results"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:      opts.Redis,
        s3Bucket:   opts.S3Bucket,
        uploadDir:  opts.UploadDir,
        resultsDir: opts.ResultsDir,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        StatusStore: c.checkRedis(ctx),
        S3:          c.checkS3(ctx),
        Uploads:     checkDir(c.uploadDir),
        Results:     checkDir(c.resultsDir),
    }
}

// Handler serves the summary as JSON for the dashboard status panel.
func (c *Checker) Handler() http.HandlerFunc {
    return func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        _ = json.NewEncoder(w).Encode(c.Summary(r.Context()))
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: true, Message: "In-memory"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3Bucket == "" {
        return Status{OK: true, Message: "Not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    cli := s3.NewFromConfig(cfg)
    _, err = cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket})
    if err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

// checkDir verifies the directory exists (creating it if needed) and is
// writable by dropping and removing a probe file.
func checkDir(dir string) Status {
    if dir == "" {
        return Status{OK: true, Message: "Not configured"}
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    probe := filepath.Join(dir, ".writecheck")
    if err := os.WriteFile(probe, nil, 0o644); err != nil {
        return Status{OK: false, Message: "Not writable"}
    }
    _ = os.Remove(probe)
    return Status{OK: true, Message: "Writable"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return fmt.Sprintf("%s...", msg[:120])
    }
    return msg
}
