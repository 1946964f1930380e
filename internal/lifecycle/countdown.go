package lifecycle

import (
	"context"
	"fmt"
	"time"
)

// EndedToken is the fixed display once the deadline has passed.
const EndedToken = "CONTEST ENDED"

// FormatRemaining renders a remaining duration as "{d}d {h}h {m}m {s}s",
// computed by integer division of the millisecond difference.
func FormatRemaining(d time.Duration) string {
	ms := d.Milliseconds()
	if ms <= 0 {
		return EndedToken
	}
	days := ms / (1000 * 60 * 60 * 24)
	hours := (ms % (1000 * 60 * 60 * 24)) / (1000 * 60 * 60)
	minutes := (ms % (1000 * 60 * 60)) / (1000 * 60)
	seconds := (ms % (1000 * 60)) / 1000
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}

// Countdown re-derives the remaining time on a fixed interval for as long as
// the owning view is mounted. It stops itself once the deadline passes (a
// terminal display state) or when the context is cancelled.
type Countdown struct {
	deadline time.Time
	interval time.Duration
	now      func() time.Time
}

func NewCountdown(deadline time.Time) *Countdown {
	return &Countdown{deadline: deadline, interval: time.Second, now: time.Now}
}

// WithInterval overrides the one-second production tick; tests use it.
func (c *Countdown) WithInterval(d time.Duration) *Countdown {
	c.interval = d
	return c
}

// Run emits the current display text on every tick, starting immediately,
// and returns when the countdown ends or ctx is cancelled. It never emits
// after returning, so a view cancelled on unmount cannot be updated late.
func (c *Countdown) Run(ctx context.Context, tick func(text string, ended bool)) {
	emit := func() bool {
		remaining := c.deadline.Sub(c.now())
		if remaining <= 0 {
			tick(EndedToken, true)
			return true
		}
		tick(FormatRemaining(remaining), false)
		return false
	}

	if emit() {
		return
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if emit() {
				return
			}
		}
	}
}
