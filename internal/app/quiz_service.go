package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"proctor-quiz-service/internal/clock"
	"proctor-quiz-service/internal/domain"
	"proctor-quiz-service/internal/validator"
)

// AttemptRepository abstracts where attempts are kept (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	Save(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, attemptID string) (domain.Attempt, error)
	Delete(ctx context.Context, attemptID string) error
}

// BankRepository loads question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// Settings carries the quiz rules applied to every session.
type Settings struct {
	BankID       string
	Duration     time.Duration
	TickInterval time.Duration
	WarningDelay time.Duration
	TimeFormat   string
	PassMark     int
}

// SessionEnv is what the hosting platform contributes to a session.
type SessionEnv struct {
	Events EventSource
	Camera Camera
	Clock  clock.Clock
}

// LoginRequest is the participant's sign-in form.
type LoginRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

// PasskeyRequest carries the six digits typed on the verification screen.
type PasskeyRequest struct {
	Passkey string `json:"passkey" validate:"required,len=6,numeric"`
}

// PhotoRequest carries the identity photo captured before the quiz.
type PhotoRequest struct {
	Photo string `json:"photo" validate:"required"`
}

// FeedbackRequest is the post-quiz rating form.
type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// QuizService walks an attempt through login, verification, photo, quiz,
// results and feedback.
type QuizService struct {
	attempts AttemptRepository
	banks    BankRepository
	settings Settings
	validate *validator.Validator
	log      zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewQuizService(attempts AttemptRepository, banks BankRepository, settings Settings, log zerolog.Logger) *QuizService {
	if settings.PassMark <= 0 {
		settings.PassMark = DefaultPassMark
	}
	return &QuizService{
		attempts: attempts,
		banks:    banks,
		settings: settings,
		validate: validator.New(),
		log:      log.With().Str("component", "quiz_service").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Login registers a participant and issues the passkey they must re-enter.
func (s *QuizService) Login(ctx context.Context, req LoginRequest) (domain.Attempt, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		ID:        uuid.NewString(),
		UserName:  req.Name,
		Passkey:   newPasskey(),
		Stage:     domain.StageVerification,
		BankID:    s.settings.BankID,
		CreatedAt: time.Now(),
	}
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	s.log.Info().Str("attempt_id", attempt.ID).Str("name", attempt.UserName).Msg("participant logged in")
	return attempt, nil
}

// VerifyPasskey compares the entered digits with the issued passkey.
// This is a confirmation step, not an authentication control.
func (s *QuizService) VerifyPasskey(ctx context.Context, attemptID string, req PasskeyRequest) (domain.Attempt, error) {
	attempt, err := s.attemptAt(ctx, attemptID, domain.StageVerification)
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return domain.Attempt{}, err
	}
	if req.Passkey != attempt.Passkey {
		return domain.Attempt{}, domain.ErrInvalidPasskey
	}
	attempt.Stage = domain.StageCamera
	return attempt, s.attempts.Save(ctx, attempt)
}

// CapturePhoto stores the identity photo untouched and unlocks the quiz.
func (s *QuizService) CapturePhoto(ctx context.Context, attemptID string, req PhotoRequest) (domain.Attempt, error) {
	attempt, err := s.attemptAt(ctx, attemptID, domain.StageCamera)
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return domain.Attempt{}, err
	}
	attempt.Photo = req.Photo
	attempt.Stage = domain.StageQuiz
	return attempt, s.attempts.Save(ctx, attempt)
}

// StartQuiz loads the bank and starts the proctored session for an attempt.
// When the session submits, the payload is graded and stored on the attempt.
func (s *QuizService) StartQuiz(ctx context.Context, attemptID string, env SessionEnv) (*Session, error) {
	attempt, err := s.attemptAt(ctx, attemptID, domain.StageQuiz)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[attemptID]; ok {
		return nil, domain.ErrSessionActive
	}

	bank, err := s.banks.GetBank(ctx, attempt.BankID)
	if err != nil {
		return nil, err
	}
	questions := bank.Questions

	session, err := StartSession(questions, SessionOptions{
		ID:           attemptID,
		Clock:        env.Clock,
		Duration:     s.settings.Duration,
		TickInterval: s.settings.TickInterval,
		WarningDelay: s.settings.WarningDelay,
		TimeFormat:   s.settings.TimeFormat,
		Events:       env.Events,
		Camera:       env.Camera,
		OnSubmit: func(payload domain.SubmissionPayload) {
			s.complete(attemptID, questions, payload)
		},
		Logger: s.log,
	})
	if err != nil {
		return nil, err
	}
	s.sessions[attemptID] = session

	attempt.StartedAt = time.Now()
	if err := s.attempts.Save(ctx, attempt); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID).Msg("failed to mark attempt started")
	}
	return session, nil
}

// EndSession tears down a running session without submitting it, e.g. when the
// participant's connection goes away.
func (s *QuizService) EndSession(attemptID string) {
	s.mu.Lock()
	session, ok := s.sessions[attemptID]
	delete(s.sessions, attemptID)
	s.mu.Unlock()
	if ok {
		session.Close()
	}
}

// Session returns the running session of an attempt.
func (s *QuizService) Session(attemptID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[attemptID]
	return session, ok
}

func (s *QuizService) complete(attemptID string, questions []domain.Question, payload domain.SubmissionPayload) {
	report := Grade(questions, payload, s.settings.PassMark)

	s.mu.Lock()
	delete(s.sessions, attemptID)
	s.mu.Unlock()

	ctx := context.Background()
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID).Msg("submission for unknown attempt")
		return
	}
	attempt.Report = &report
	attempt.Stage = domain.StageResults
	if err := s.attempts.Save(ctx, attempt); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID).Msg("failed to store report")
		return
	}
	s.log.Info().
		Str("attempt_id", attemptID).
		Int("score", report.Score).
		Int("percentage", report.Percentage).
		Bool("passed", report.Passed).
		Msg("attempt graded")
}

// Results returns the graded report once the quiz has been submitted.
func (s *QuizService) Results(ctx context.Context, attemptID string) (domain.Report, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Report{}, err
	}
	if attempt.Report == nil {
		return domain.Report{}, domain.ErrResultsNotReady
	}
	return *attempt.Report, nil
}

// SubmitFeedback records the participant's rating. Feedback is logged, not stored.
func (s *QuizService) SubmitFeedback(ctx context.Context, attemptID string, req FeedbackRequest) (domain.Feedback, error) {
	attempt, err := s.attemptAt(ctx, attemptID, domain.StageResults)
	if err != nil {
		return domain.Feedback{}, err
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validate.Struct(req); err != nil {
		return domain.Feedback{}, err
	}

	feedback := domain.Feedback{
		Rating:  req.Rating,
		Comment: req.Comment,
		Label:   domain.FeedbackLabel(req.Rating),
	}
	attempt.Feedback = &feedback
	attempt.Stage = domain.StageFeedback
	if err := s.attempts.Save(ctx, attempt); err != nil {
		return domain.Feedback{}, err
	}
	s.log.Info().
		Str("attempt_id", attemptID).
		Str("name", attempt.UserName).
		Int("rating", feedback.Rating).
		Str("comment", feedback.Comment).
		Msg("feedback submitted")
	return feedback, nil
}

// Retake discards the attempt so the participant can log in again.
func (s *QuizService) Retake(ctx context.Context, attemptID string) error {
	s.EndSession(attemptID)
	return s.attempts.Delete(ctx, attemptID)
}

// Attempt returns the current state of an attempt.
func (s *QuizService) Attempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.Get(ctx, attemptID)
}

func (s *QuizService) attemptAt(ctx context.Context, attemptID string, stage domain.Stage) (domain.Attempt, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Stage != stage {
		return domain.Attempt{}, fmt.Errorf("%w: at %s, want %s", domain.ErrStageMismatch, attempt.Stage, stage)
	}
	return attempt, nil
}

// newPasskey returns a six-digit code in [100000, 999999].
func newPasskey() string {
	return fmt.Sprintf("%d", 100000+rand.Intn(900000))
}
