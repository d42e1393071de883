package clock

import (
	"context"
	"time"

	"github.com/usrname0/holdup/internal/ports"
)

// Wall is the production clock. time.Now carries a monotonic reading, so
// elapsed computed from it is immune to wall-clock adjustments.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now() }

func (Wall) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ ports.Clock = Wall{}
