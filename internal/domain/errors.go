package domain

import "errors"

var (
	// ErrNoQuestions is returned when a session is started without questions.
	ErrNoQuestions = errors.New("question list is empty")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrAttemptNotFound is returned for unknown attempt IDs.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrInvalidPasskey is returned when the entered passkey does not match.
	ErrInvalidPasskey = errors.New("invalid passkey")
	// ErrStageMismatch is returned when an attempt operation is called out of order.
	ErrStageMismatch = errors.New("attempt is not at the required stage")
	// ErrSessionActive is returned when a quiz is started twice for one attempt.
	ErrSessionActive = errors.New("quiz session already running")
	// ErrResultsNotReady is returned when results are requested before submission.
	ErrResultsNotReady = errors.New("results not ready")
	// ErrInvalidOption indicates an answer outside A-D.
	ErrInvalidOption = errors.New("invalid answer option")
	// ErrCameraUnavailable is returned by platforms without a camera.
	ErrCameraUnavailable = errors.New("camera unavailable")
)
