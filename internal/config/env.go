package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// AssemblyConfig tunes batching and source-read retries.
type AssemblyConfig struct {
    BatchSize          int
    InterBatchDelay    time.Duration
    MaxReadRetries     int
    ReadRetryBackoff   time.Duration
    LargeFileMB        int
    LargeFileBatchSize int
    LargeFileDelay     time.Duration
}

// LimitsConfig bounds uploads before any assembly work starts.
type LimitsConfig struct {
    MaxFileMB  int
    MaxMergeFiles int
}

// StorageConfig configures optional result sinks and source decryption.
type StorageConfig struct {
    ResultsDir     string
    S3Bucket       string
    S3Prefix       string
    ObjectPassword string
    RedisURL       string
    StatusTTL      time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging  LoggingConfig
    Axiom    AxiomConfig
    Assembly AssemblyConfig
    Limits   LimitsConfig
    Storage  StorageConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdftoolkit.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdftoolkit",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Assembly = AssemblyConfig{
        BatchSize:          parseInt(getEnv("ASSEMBLY_BATCH_SIZE", "100"), 100),
        InterBatchDelay:    parseDuration(getEnv("ASSEMBLY_BATCH_DELAY", "10ms"), 10*time.Millisecond),
        MaxReadRetries:     parseInt(getEnv("ASSEMBLY_READ_RETRIES", "3"), 3),
        ReadRetryBackoff:   parseDuration(getEnv("ASSEMBLY_READ_BACKOFF", "1s"), time.Second),
        LargeFileMB:        parseInt(getEnv("ASSEMBLY_LARGE_FILE_MB", "50"), 50),
        LargeFileBatchSize: parseInt(getEnv("ASSEMBLY_LARGE_BATCH_SIZE", "50"), 50),
        LargeFileDelay:     parseDuration(getEnv("ASSEMBLY_LARGE_BATCH_DELAY", "100ms"), 100*time.Millisecond),
    }

    cfg.Limits = LimitsConfig{
        MaxFileMB:     parseInt(getEnv("MAX_FILE_MB", "100"), 100),
        MaxMergeFiles: parseInt(getEnv("MAX_MERGE_FILES", "20"), 20),
    }

    cfg.Storage = StorageConfig{
        ResultsDir:     getEnv("RESULTS_DIR", ""),
        S3Bucket:       getEnv("RESULTS_S3_BUCKET", ""),
        S3Prefix:       getEnv("RESULTS_S3_PREFIX", "pdftoolkit"),
        ObjectPassword: getEnv("OBJECT_PASSWORD", ""),
        RedisURL:       getEnv("REDIS_URL", ""),
        StatusTTL:      parseDuration(getEnv("STATUS_TTL", "1h"), time.Hour),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
