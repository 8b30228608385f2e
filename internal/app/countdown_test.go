package app

import (
	"testing"
	"time"

	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
)

func TestFormatRemaining(t *testing.T) {
	cases := map[int]string{1800: "30:00", 299: "4:59", 61: "1:01", 9: "0:09", 0: "0:00", -3: "0:00"}
	for in, want := range cases {
		if got := FormatRemaining(in); got != want {
			t.Fatalf("FormatRemaining(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestUrgencyTiers(t *testing.T) {
	cases := map[int]domain.Urgency{
		1800: domain.UrgencyNormal,
		301:  domain.UrgencyNormal,
		300:  domain.UrgencyWarning,
		61:   domain.UrgencyWarning,
		60:   domain.UrgencyCritical,
		0:    domain.UrgencyCritical,
	}
	for in, want := range cases {
		if got := UrgencyFor(in); got != want {
			t.Fatalf("UrgencyFor(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestCountdownTicksUntilStopped(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	ticks := 0
	cd := StartCountdown(m, time.Second, func() { ticks++ })

	m.Advance(3500 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}
	cd.Stop()
	cd.Stop()
	m.Advance(5 * time.Second)
	if ticks != 3 {
		t.Fatalf("expected no ticks after stop, got %d", ticks)
	}
	if m.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", m.Pending())
	}
}

func TestCountdownStopFromTick(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	ticks := 0
	var cd *Countdown
	cd = StartCountdown(m, time.Second, func() {
		ticks++
		if ticks == 2 {
			cd.Stop()
		}
	})
	m.Advance(10 * time.Second)
	if ticks != 2 {
		t.Fatalf("expected countdown to stop itself after 2 ticks, got %d", ticks)
	}
}
