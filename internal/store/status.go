package store

import (
    "context"
    "sync"
    "time"
)

// State mirrors the per-operation state machine:
// idle -> validating -> assembling -> succeeded | failed | cancelled.
type State string

const (
    StateIdle       State = "idle"
    StateValidating State = "validating"
    StateAssembling State = "assembling"
    StateSucceeded  State = "succeeded"
    StateFailed     State = "failed"
    StateCancelled  State = "cancelled"
)

// Terminal reports whether the state ends an operation.
func (s State) Terminal() bool {
    return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Status is the externally visible snapshot of one operation.
type Status struct {
    Op       string     `json:"op"`
    State    State      `json:"state"`
    Progress int        `json:"progress"`
    Message  string     `json:"message"`
    Filename string     `json:"filename,omitempty"`
    Start    *time.Time `json:"start_time,omitempty"`
    End      *time.Time `json:"end_time,omitempty"`
}

// StatusStore tracks operation status for the duration of a session.
// Entries expire; nothing here is durable document storage.
type StatusStore interface {
    Set(ctx context.Context, opID string, st Status) error
    Get(ctx context.Context, opID string) (Status, bool, error)
    Close() error
}

// MemoryStatus is the default in-process store.
type MemoryStatus struct {
    ttl time.Duration

    mu      sync.RWMutex
    entries map[string]memEntry
}

type memEntry struct {
    st      Status
    expires time.Time
}

func NewMemoryStatus(ttl time.Duration) *MemoryStatus {
    if ttl <= 0 { ttl = time.Hour }
    return &MemoryStatus{ttl: ttl, entries: map[string]memEntry{}}
}

func (m *MemoryStatus) Set(_ context.Context, opID string, st Status) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    // Opportunistic sweep keeps the map bounded without a janitor goroutine.
    now := time.Now()
    for id, e := range m.entries {
        if now.After(e.expires) {
            delete(m.entries, id)
        }
    }
    m.entries[opID] = memEntry{st: st, expires: now.Add(m.ttl)}
    return nil
}

func (m *MemoryStatus) Get(_ context.Context, opID string) (Status, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    e, ok := m.entries[opID]
    if !ok || time.Now().After(e.expires) {
        return Status{}, false, nil
    }
    return e.st, true, nil
}

func (m *MemoryStatus) Close() error { return nil }
