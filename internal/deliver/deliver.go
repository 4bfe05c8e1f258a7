// Package deliver hands finished output documents to their destination.
// The HTTP attachment path lives in the API layer; sinks here cover the
// optional server-side destinations (local results dir, S3).
package deliver

import "context"

// Sink stores one output document and returns its location.
type Sink interface {
    Deliver(ctx context.Context, filename string, data []byte) (string, error)
}
