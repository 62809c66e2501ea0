package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps per-key request timestamps in process memory. Quotas
// reset on restart and are not shared across gateway instances; use the
// Redis store when running more than one gateway.
type MemoryStore struct {
	windows sync.Map // key -> *window
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) getWindow(key string) *window {
	val, _ := m.windows.LoadOrStore(key, &window{})
	return val.(*window)
}

// prune drops entries older than the window. Entries with a negative age
// (wall clock stepped backwards) are kept; they are still inside the window.
func (w *window) prune(now time.Time) {
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if now.Sub(ts) < Window {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept
}

func (m *MemoryStore) CheckAndReserve(_ context.Context, key string, limit, cost int, now time.Time) (Decision, error) {
	w := m.getWindow(key)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)
	used := len(w.stamps)

	if limit <= 0 || used+cost > limit {
		return Decision{Allowed: false, Used: used, Limit: limit}, nil
	}

	for i := 0; i < cost; i++ {
		w.stamps = append(w.stamps, now)
	}
	return Decision{Allowed: true, Used: used + cost, Limit: limit}, nil
}

func (m *MemoryStore) Usage(_ context.Context, key string, now time.Time) (int, error) {
	val, ok := m.windows.Load(key)
	if !ok {
		return 0, nil
	}
	w := val.(*window)
	w.mu.Lock()
	defer w.mu.Unlock()

	// Read-only count of in-window entries.
	used := 0
	for _, ts := range w.stamps {
		if now.Sub(ts) < Window {
			used++
		}
	}
	return used, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
