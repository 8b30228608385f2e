package app

import (
	"fmt"
	"sync"
	"time"

	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
)

// Countdown fires onTick once per interval until stopped. Deadlines are
// computed from the start time so ticks do not drift.
type Countdown struct {
	clock    clock.Clock
	interval time.Duration
	onTick   func()
	start    time.Time

	mu      sync.Mutex
	n       int
	timer   clock.Timer
	stopped bool
}

func StartCountdown(c clock.Clock, interval time.Duration, onTick func()) *Countdown {
	cd := &Countdown{
		clock:    c,
		interval: interval,
		onTick:   onTick,
		start:    c.Now(),
	}
	cd.mu.Lock()
	cd.scheduleLocked()
	cd.mu.Unlock()
	return cd
}

func (c *Countdown) scheduleLocked() {
	c.n++
	delay := c.start.Add(time.Duration(c.n) * c.interval).Sub(c.clock.Now())
	if delay < 0 {
		delay = 0
	}
	c.timer = c.clock.AfterFunc(delay, c.fire)
}

func (c *Countdown) fire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.scheduleLocked()
	c.mu.Unlock()

	c.onTick()
}

// Stop cancels the pending tick. It is safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// UrgencyFor derives the display tier purely from the remaining seconds.
func UrgencyFor(seconds int) domain.Urgency {
	switch {
	case seconds <= 60:
		return domain.UrgencyCritical
	case seconds <= 300:
		return domain.UrgencyWarning
	default:
		return domain.UrgencyNormal
	}
}
