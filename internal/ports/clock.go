package ports

import (
	"context"
	"time"
)

// Clock abstracts time so the gate loop is deterministic under test.
// Now must be monotonic (time.Time carries a monotonic reading); Sleep
// returns the context error if cancelled before the duration elapses.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}
