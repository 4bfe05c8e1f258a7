package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/rs/zerolog/log"

    "github.com/local/pdftoolkit/internal/api"
    "github.com/local/pdftoolkit/internal/assembler"
    cfgpkg "github.com/local/pdftoolkit/internal/config"
    "github.com/local/pdftoolkit/internal/deliver"
    logpkg "github.com/local/pdftoolkit/internal/logger"
    "github.com/local/pdftoolkit/internal/metrics"
    "github.com/local/pdftoolkit/internal/ops"
    "github.com/local/pdftoolkit/internal/pdf"
    "github.com/local/pdftoolkit/internal/source"
    "github.com/local/pdftoolkit/internal/statuscheck"
    "github.com/local/pdftoolkit/internal/store"
    web "github.com/local/pdftoolkit/internal/web"
)

func main() {
    _ = godotenv.Load()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Status store: Redis when configured, in-memory otherwise.
    var status store.StatusStore
    var pinger statuscheck.RedisPinger
    if cfg.Storage.RedisURL != "" {
        rs, err := store.NewRedisStatus(cfg.Storage.RedisURL, cfg.Storage.StatusTTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init redis status store")
        }
        status = rs
        pinger = rs
    } else {
        status = store.NewMemoryStatus(cfg.Storage.StatusTTL)
    }
    defer status.Close()

    // Optional result sinks
    var sinks []deliver.Sink
    if cfg.Storage.ResultsDir != "" {
        sinks = append(sinks, &deliver.Local{Dir: cfg.Storage.ResultsDir})
    }
    if cfg.Storage.S3Bucket != "" {
        s3sink, err := deliver.NewS3(context.Background(), cfg.Storage.S3Bucket, cfg.Storage.S3Prefix, cfg.Storage.ObjectPassword)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to init s3 result sink")
        }
        sinks = append(sinks, s3sink)
    }

    engine := pdf.NewPdfcpuEngine()
    resolver := &source.Resolver{Password: cfg.Storage.ObjectPassword}
    asmOpts := assembler.Options{
        BatchSize:          cfg.Assembly.BatchSize,
        InterBatchDelay:    cfg.Assembly.InterBatchDelay,
        MaxReadRetries:     cfg.Assembly.MaxReadRetries,
        ReadRetryBackoff:   cfg.Assembly.ReadRetryBackoff,
        LargeFileBytes:     int64(cfg.Assembly.LargeFileMB) << 20,
        LargeFileBatchSize: cfg.Assembly.LargeFileBatchSize,
        LargeFileDelay:     cfg.Assembly.LargeFileDelay,
    }
    runner := ops.NewRunner(engine, resolver, status, asmOpts, sinks...)

    mux := http.NewServeMux()
    api.New(runner, cfg.Limits).RegisterRoutes(mux)

    // Dashboard
    dash := web.New()
    dash.RegisterRoutes(mux)

    uploadDir := os.Getenv("UPLOAD_DIR")
    if uploadDir == "" { uploadDir = "uploads" }
    checker := statuscheck.New(statuscheck.Options{
        Redis:      pinger,
        S3Bucket:   cfg.Storage.S3Bucket,
        UploadDir:  uploadDir,
        ResultsDir: cfg.Storage.ResultsDir,
    })
    mux.HandleFunc("/api/status", checker.Handler())

    mux.Handle("/metrics", metrics.Handler())

    port := os.Getenv("PORT")
    if port == "" { port = "8080" }
    srv := &http.Server{Addr: ":"+port, Handler: mux}

    go func(){
        log.Info().Msgf("HTTP server listening on :%s", port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(ctx)
    fmt.Println("shutdown complete")
}
