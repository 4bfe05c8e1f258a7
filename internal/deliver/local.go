package deliver

import (
    "context"
    "fmt"
    "os"
    "path/filepath"

    "github.com/rs/zerolog/log"
)

// Local writes results under a directory, one file per operation.
type Local struct {
    Dir string
}

func (l *Local) Deliver(_ context.Context, filename string, data []byte) (string, error) {
    dir := l.Dir
    if dir == "" { dir = "results" }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return "", fmt.Errorf("create results dir: %w", err)
    }
    path := filepath.Join(dir, filename)
    if err := os.WriteFile(path, data, 0o644); err != nil {
        return "", fmt.Errorf("write result: %w", err)
    }
    log.Info().Str("path", path).Int("bytes", len(data)).Msg("result saved locally")
    return path, nil
}
