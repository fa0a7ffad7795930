package poll

import (
	"context"
	"time"
)

// TimerFactory returns a channel that fires once after d, and a function that
// stops the timer.
type TimerFactory func(d time.Duration) (<-chan time.Time, func() bool)

// RealTimer is the TimerFactory backed by time.NewTimer.
func RealTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// wait blocks for d, or until ctx is done, in which case it returns false.
func wait(ctx context.Context, timer TimerFactory, d time.Duration) bool {
	c, stop := timer(d)
	select {
	case <-c:
		return true
	case <-ctx.Done():
		stop()
		return false
	}
}
