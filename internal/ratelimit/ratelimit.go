package ratelimit

import (
	"context"
	"time"
)

// Window is the trailing interval over which daily quotas are counted.
const Window = 24 * time.Hour

// Decision is the outcome of an admission check. When Allowed is true, Used
// includes the reserved cost; when false, Used is the count at the time of
// the check and nothing was recorded.
type Decision struct {
	Allowed bool
	Used    int
	Limit   int
}

// Store tracks request timestamps per API key inside the sliding window.
// CheckAndReserve must be atomic per key: prune, count, and either deny
// without mutating state or append cost entries in one step, so that
// concurrent requests against the same key can never both consume the last
// unit of quota. Implementations must not let a wall clock moving backwards
// evict entries that are still inside the window.
type Store interface {
	CheckAndReserve(ctx context.Context, key string, limit, cost int, now time.Time) (Decision, error)
	Usage(ctx context.Context, key string, now time.Time) (int, error)
	Close() error
}
