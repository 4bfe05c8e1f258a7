package source

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "strings"
    "sync"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"
)

// Resolver reads source bytes referenced by:
// - plain filesystem paths or file://path
// - http(s):// URLs
// - s3://bucket/key objects (AWS config from the default chain)
// A #page fragment on any ref is ignored. When Password is set, stored
// objects encrypted with EncryptGCM are decrypted transparently.
type Resolver struct {
    // Password decrypts GCM-encrypted stored sources; empty disables.
    Password string

    mu sync.Mutex
    s3 *s3.Client
}

func (r *Resolver) Read(ctx context.Context, ref string) ([]byte, error) {
    if i := strings.Index(ref, "#"); i >= 0 {
        ref = ref[:i]
    }

    var data []byte
    var err error
    switch {
    case strings.HasPrefix(ref, "s3://"):
        data, err = r.readS3(ctx, ref)
    case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
        data, err = r.readHTTP(ctx, ref)
    case strings.HasPrefix(ref, "file://"):
        data, err = os.ReadFile(strings.TrimPrefix(ref, "file://"))
    default:
        data, err = os.ReadFile(ref)
    }
    if err != nil {
        return nil, err
    }
    if r.Password != "" {
        return MaybeDecrypt(data, r.Password)
    }
    return data, nil
}

func (r *Resolver) readHTTP(ctx context.Context, url string) ([]byte, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil { return nil, err }
    resp, err := http.DefaultClient.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode != http.StatusOK {
        return nil, fmt.Errorf("http %d fetching %s", resp.StatusCode, url)
    }
    return io.ReadAll(resp.Body)
}

func (r *Resolver) readS3(ctx context.Context, s3url string) ([]byte, error) {
    path := strings.TrimPrefix(s3url, "s3://")
    slash := strings.Index(path, "/")
    if slash <= 0 {
        return nil, fmt.Errorf("invalid s3 url: %s", s3url)
    }
    bucket := path[:slash]
    key := path[slash+1:]

    cli, err := r.s3Client(ctx)
    if err != nil { return nil, err }

    out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
    if err != nil { return nil, err }
    defer out.Body.Close()

    data, err := io.ReadAll(out.Body)
    if err != nil { return nil, err }
    log.Debug().Str("bucket", bucket).Str("key", key).Int("bytes", len(data)).Msg("fetched s3 source")
    return data, nil
}

func (r *Resolver) s3Client(ctx context.Context) (*s3.Client, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.s3 != nil {
        return r.s3, nil
    }
    cfg, err := awscfg.LoadDefaultConfig(ctx)
    if err != nil {
        return nil, fmt.Errorf("load aws config: %w", err)
    }
    r.s3 = s3.NewFromConfig(cfg)
    return r.s3, nil
}
