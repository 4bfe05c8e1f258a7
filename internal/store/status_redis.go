package store

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisStatus shares operation status across instances. Keys carry a short
// TTL so entries stay session-scoped.
type RedisStatus struct {
    client *redis.Client
    ttl    time.Duration
}

func NewRedisStatus(redisURL string, ttl time.Duration) (*RedisStatus, error) {
    opt, err := redis.ParseURL(redisURL)
    if err != nil { return nil, err }
    c := redis.NewClient(opt)
    if err := c.Ping(context.Background()).Err(); err != nil { return nil, err }
    if ttl <= 0 { ttl = time.Hour }
    return &RedisStatus{client: c, ttl: ttl}, nil
}

func (s *RedisStatus) key(opID string) string { return fmt.Sprintf("op:%s:status", opID) }

func (s *RedisStatus) Set(ctx context.Context, opID string, st Status) error {
    b, err := json.Marshal(st)
    if err != nil { return err }
    return s.client.Set(ctx, s.key(opID), b, s.ttl).Err()
}

func (s *RedisStatus) Get(ctx context.Context, opID string) (Status, bool, error) {
    res, err := s.client.Get(ctx, s.key(opID)).Result()
    if err == redis.Nil {
        return Status{}, false, nil
    }
    if err != nil {
        return Status{}, false, err
    }
    var st Status
    if err := json.Unmarshal([]byte(res), &st); err != nil {
        return Status{}, false, err
    }
    return st, true, nil
}

// Ping reports connectivity, used by the readiness checker.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
