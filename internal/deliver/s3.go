package deliver

import (
    "bytes"
    "context"
    "fmt"
    "os"
    "strings"

    awscfg "github.com/aws/aws-sdk-go-v2/config"
    "github.com/aws/aws-sdk-go-v2/credentials"
    "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
    "github.com/aws/aws-sdk-go-v2/service/s3"
    "github.com/rs/zerolog/log"

    "github.com/local/pdftoolkit/internal/source"
)

// S3 uploads results to a bucket via the transfer manager. When Password is
// set, payloads are stored GCM-encrypted in the same format the source
// resolver can read back.
type S3 struct {
    Bucket   string
    Prefix   string
    Password string

    uploader *manager.Uploader
}

func NewS3(ctx context.Context, bucket, prefix, password string) (*S3, error) {
    if bucket == "" {
        return nil, fmt.Errorf("s3 sink requires a bucket")
    }
    // The results bucket may live in a different account than the source
    // buckets; RESULTS_S3_ACCESS_KEY/RESULTS_S3_SECRET_KEY override the
    // default credential chain for this sink only.
    var loadOpts []func(*awscfg.LoadOptions) error
    if id, secret := os.Getenv("RESULTS_S3_ACCESS_KEY"), os.Getenv("RESULTS_S3_SECRET_KEY"); id != "" && secret != "" {
        loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(id, secret, "")))
    }
    cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
    if err != nil {
        return nil, fmt.Errorf("load aws config: %w", err)
    }
    cli := s3.NewFromConfig(cfg)
    return &S3{
        Bucket:   bucket,
        Prefix:   strings.Trim(prefix, "/"),
        Password: password,
        uploader: manager.NewUploader(cli),
    }, nil
}

func (s *S3) Deliver(ctx context.Context, filename string, data []byte) (string, error) {
    payload := data
    contentType := "application/pdf"
    if s.Password != "" {
        enc, err := source.EncryptGCM(data, s.Password)
        if err != nil {
            return "", fmt.Errorf("encrypt result: %w", err)
        }
        payload = enc
        contentType = "application/octet-stream"
    }

    key := filename
    if s.Prefix != "" {
        key = s.Prefix + "/" + filename
    }
    _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
        Bucket:      &s.Bucket,
        Key:         &key,
        Body:        bytes.NewReader(payload),
        ContentType: &contentType,
        Metadata:    map[string]string{"name": filename},
    })
    if err != nil {
        return "", fmt.Errorf("upload result: %w", err)
    }
    loc := fmt.Sprintf("s3://%s/%s", s.Bucket, key)
    log.Info().Str("location", loc).Int("bytes", len(payload)).Bool("encrypted", s.Password != "").Msg("result uploaded to s3")
    return loc, nil
}
