package app

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
)

const (
	DefaultDuration     = 30 * time.Minute
	DefaultTickInterval = time.Second
	DefaultWarningDelay = 2 * time.Second
	// DefaultTimeFormat mirrors an en-US locale time of day.
	DefaultTimeFormat = "3:04:05 PM"

	recentViolations = 3
)

// SessionOptions configures a proctored session. Zero values fall back to defaults.
type SessionOptions struct {
	ID           string
	Clock        clock.Clock
	Duration     time.Duration
	TickInterval time.Duration
	WarningDelay time.Duration
	TimeFormat   string

	// Events is the platform signal source; nil disables violation detection.
	Events EventSource
	// Camera backs the live monitoring feed; nil runs without video.
	Camera      Camera
	Constraints Constraints

	// OnSubmit receives the payload exactly once, outside the session lock.
	OnSubmit func(domain.SubmissionPayload)
	Logger   zerolog.Logger
}

// Session is the proctored quiz state machine for one attempt. All mutations
// happen under mu; listener removal, camera release and payload emission run
// after it is released.
type Session struct {
	id           string
	questions    []domain.Question
	clock        clock.Clock
	warningDelay time.Duration
	timeFormat   string
	onSubmit     func(domain.SubmissionPayload)
	log          zerolog.Logger
	monitorDone  <-chan struct{}

	mu            sync.Mutex
	state         domain.SessionState
	current       int
	answers       map[string]domain.Option
	violations    []domain.Violation
	remaining     int
	startedAt     time.Time
	payload       *domain.SubmissionPayload
	monitor       domain.MonitorStatus
	advisory      string
	closed        bool
	countdown     *Countdown
	pendingSubmit clock.Timer
	detach        func()
	feed          *MonitorFeed
	subscribers   map[chan domain.SessionSnapshot]struct{}
}

// StartSession begins a session over questions. The slice is treated as read-only.
func StartSession(questions []domain.Question, opts SessionOptions) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.WarningDelay <= 0 {
		opts.WarningDelay = DefaultWarningDelay
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = DefaultTimeFormat
	}
	if opts.Constraints == (Constraints{}) {
		opts.Constraints = DefaultConstraints
	}
	onSubmit := opts.OnSubmit
	if onSubmit == nil {
		onSubmit = func(domain.SubmissionPayload) {}
	}

	s := &Session{
		id:           opts.ID,
		questions:    questions,
		clock:        opts.Clock,
		warningDelay: opts.WarningDelay,
		timeFormat:   opts.TimeFormat,
		onSubmit:     onSubmit,
		log:          opts.Logger.With().Str("component", "session").Str("session_id", opts.ID).Logger(),
		state:        domain.StateInProgress,
		answers:      make(map[string]domain.Option),
		remaining:    int(opts.Duration / time.Second),
		startedAt:    opts.Clock.Now(),
		monitor:      domain.MonitorUnavailable,
		subscribers:  make(map[chan domain.SessionSnapshot]struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.countdown = StartCountdown(s.clock, opts.TickInterval, s.Tick)
	if opts.Events != nil {
		s.detach = attachDetector(opts.Events, s, s.log)
	}
	if opts.Camera != nil {
		s.monitor = domain.MonitorPending
		s.feed = StartMonitorFeed(opts.Camera, opts.Constraints, s.log, s.monitorResolved)
		s.monitorDone = s.feed.Done()
	} else {
		done := make(chan struct{})
		close(done)
		s.monitorDone = done
		s.advisory = "Live monitoring unavailable on this device"
	}

	s.log.Info().Int("questions", len(questions)).Int("remaining", s.remaining).Msg("session started")
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the current read-only view.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Payload returns the submission payload once the session is submitted.
func (s *Session) Payload() (domain.SubmissionPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return domain.SubmissionPayload{}, false
	}
	return *s.payload, true
}

// Violations returns a copy of the violation log.
func (s *Session) Violations() []domain.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Violation(nil), s.violations...)
}

// MonitorResolved is closed once camera acquisition has succeeded or failed.
func (s *Session) MonitorResolved() <-chan struct{} {
	return s.monitorDone
}

// SelectAnswer records opt for the current question. Ignored unless in progress.
func (s *Session) SelectAnswer(opt domain.Option) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return false
	}
	switch opt {
	case domain.OptionA, domain.OptionB, domain.OptionC, domain.OptionD:
	default:
		return false
	}
	s.answers[s.questions[s.current].ID] = opt
	s.broadcastLocked()
	return true
}

// GoTo moves to index, saturating at the bank boundaries. It returns the resulting index.
func (s *Session) GoTo(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return s.current
	}
	if index < 0 {
		index = 0
	}
	if last := len(s.questions) - 1; index > last {
		index = last
	}
	s.current = index
	s.broadcastLocked()
	return s.current
}

func (s *Session) Next() int {
	return s.GoTo(s.currentIndex() + 1)
}

func (s *Session) Previous() int {
	return s.GoTo(s.currentIndex() - 1)
}

func (s *Session) currentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Tick consumes one second of the countdown and submits when it reaches zero.
// A timeout is not a violation.
func (s *Session) Tick() {
	s.mu.Lock()
	if !s.activeLocked() {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	expired := s.remaining == 0
	s.broadcastLocked()
	s.mu.Unlock()

	if expired {
		s.log.Info().Msg("time expired")
		s.finish(domain.ReasonTimeout, false)
	}
}

// RecordViolation appends a violation. The first one while in progress shows
// the warning and schedules a forced submission after the warning delay;
// later ones are only logged. It reports whether the violation was kept.
func (s *Session) RecordViolation(description string) bool {
	s.mu.Lock()
	if s.closed || s.state == domain.StateSubmitted {
		s.mu.Unlock()
		return false
	}
	s.violations = append(s.violations, domain.Violation{
		Description: description,
		OccurredAt:  s.clock.Now(),
	})

	var countdown *Countdown
	if s.state == domain.StateInProgress {
		s.state = domain.StateWarningShown
		countdown, s.countdown = s.countdown, nil
		s.pendingSubmit = s.clock.AfterFunc(s.warningDelay, func() {
			s.finish(domain.ReasonViolation, false)
		})
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if countdown != nil {
		countdown.Stop()
	}
	return true
}

// ForceSubmit submits from in-progress or warning-shown. Repeated calls are no-ops.
func (s *Session) ForceSubmit() bool {
	s.mu.Lock()
	reason := domain.ReasonForced
	switch {
	case s.state == domain.StateWarningShown:
		reason = domain.ReasonViolation
	case s.remaining == 0:
		reason = domain.ReasonTimeout
	}
	s.mu.Unlock()
	return s.finish(reason, false)
}

// Submit is the participant's own submission; only valid while in progress.
func (s *Session) Submit() bool {
	return s.finish(domain.ReasonManual, true)
}

func (s *Session) finish(reason domain.SubmitReason, requireInProgress bool) bool {
	s.mu.Lock()
	if s.closed || s.state == domain.StateSubmitted {
		s.mu.Unlock()
		return false
	}
	if requireInProgress && s.state != domain.StateInProgress {
		s.mu.Unlock()
		return false
	}

	elapsed := int(s.clock.Now().Sub(s.startedAt) / time.Second)
	payload := BuildSubmission(s.questions, s.answers, s.violations, elapsed, reason)
	s.payload = &payload
	s.state = domain.StateSubmitted
	if s.monitor == domain.MonitorActive {
		s.monitor = domain.MonitorStopped
	}
	release := s.releaseLocked()
	s.mu.Unlock()

	release()
	s.log.Info().
		Str("reason", string(reason)).
		Int("elapsed_seconds", payload.ElapsedSeconds).
		Int("violations", len(payload.Violations)).
		Msg("session submitted")
	s.onSubmit(payload)

	s.mu.Lock()
	if !s.closed {
		s.broadcastLocked()
	}
	s.mu.Unlock()
	return true
}

// Close tears the session down from any state: timers are cancelled, listeners
// removed and the camera released. No payload is emitted. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.monitor == domain.MonitorActive {
		s.monitor = domain.MonitorStopped
	}
	release := s.releaseLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	state := s.state
	s.mu.Unlock()

	release()
	s.log.Info().Str("state", state.String()).Msg("session closed")
}

// Subscribe returns a channel of snapshots starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		ch <- s.snapshotLocked()
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) activeLocked() bool {
	return !s.closed && s.state == domain.StateInProgress
}

func (s *Session) violationTime() string {
	return s.clock.Now().Format(s.timeFormat)
}

func (s *Session) monitorResolved(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == domain.StateSubmitted {
		return
	}
	if err != nil {
		s.monitor = domain.MonitorUnavailable
		s.advisory = "Live monitoring unavailable: " + err.Error()
	} else {
		s.monitor = domain.MonitorActive
		s.advisory = ""
	}
	s.broadcastLocked()
}

// releaseLocked detaches every scoped resource and returns the function that
// releases them; it must run after mu is unlocked.
func (s *Session) releaseLocked() func() {
	countdown, pending, detach, feed := s.countdown, s.pendingSubmit, s.detach, s.feed
	s.countdown, s.pendingSubmit, s.detach, s.feed = nil, nil, nil, nil
	return func() {
		if countdown != nil {
			countdown.Stop()
		}
		if pending != nil {
			pending.Stop()
		}
		if detach != nil {
			detach()
		}
		if feed != nil {
			feed.Release()
		}
	}
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so a slow reader never blocks the session
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	q := s.questions[s.current]
	answered := 0
	for _, opt := range s.answers {
		if opt != domain.OptionNone {
			answered++
		}
	}

	from := len(s.violations) - recentViolations
	if from < 0 {
		from = 0
	}
	recent := make([]string, 0, len(s.violations)-from)
	for _, v := range s.violations[from:] {
		recent = append(recent, v.Description)
	}

	snap := domain.SessionSnapshot{
		SessionID:        s.id,
		State:            s.state,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		Question:         q.Public(),
		Selected:         s.answers[q.ID],
		Answered:         answered,
		RemainingSeconds: s.remaining,
		Clock:            FormatRemaining(s.remaining),
		Urgency:          UrgencyFor(s.remaining),
		ViolationCount:   len(s.violations),
		RecentViolations: recent,
		Monitor:          s.monitor,
		Advisory:         s.advisory,
	}
	if s.payload != nil {
		p := *s.payload
		snap.Payload = &p
	}
	return snap
}
