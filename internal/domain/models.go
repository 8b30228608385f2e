package domain

import (
	"fmt"
	"strings"
	"time"
)

// Option identifies one of the four answer choices. The zero value means unanswered.
type Option string

const (
	OptionNone Option = ""
	OptionA    Option = "A"
	OptionB    Option = "B"
	OptionC    Option = "C"
	OptionD    Option = "D"
)

// Options lists the selectable choices in display order.
var Options = []Option{OptionA, OptionB, OptionC, OptionD}

// ParseOption accepts "a".."d" in any case, surrounded by whitespace.
func ParseOption(raw string) (Option, error) {
	switch opt := Option(strings.ToUpper(strings.TrimSpace(raw))); opt {
	case OptionA, OptionB, OptionC, OptionD:
		return opt, nil
	default:
		return OptionNone, fmt.Errorf("%w: %q", ErrInvalidOption, raw)
	}
}

// Question models an MCQ item with four options and a single correct answer.
type Question struct {
	ID            string `json:"id"`
	QuestionText  string `json:"question_text"`
	Category      string `json:"category"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer Option `json:"correct_answer"`
}

// OptionText returns the text shown for opt, or "" for an unknown option.
func (q Question) OptionText(opt Option) string {
	switch opt {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	}
	return ""
}

// Public strips the correct answer so the question can be sent to a participant.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Category:     q.Category,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
	}
}

// PublicQuestion is the participant-facing view of a question.
type PublicQuestion struct {
	ID           string `json:"id"`
	QuestionText string `json:"question_text"`
	Category     string `json:"category"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}

// Bank is an ordered collection of questions.
type Bank struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerRecord is one entry of the final answer set.
type AnswerRecord struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer Option `json:"selected_answer"`
}

// Violation is a timestamped proctoring breach.
type Violation struct {
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (v Violation) String() string {
	return v.Description
}

// SubmitReason records what triggered a submission.
type SubmitReason string

const (
	ReasonManual    SubmitReason = "manual"
	ReasonTimeout   SubmitReason = "timeout"
	ReasonViolation SubmitReason = "violation"
	ReasonForced    SubmitReason = "forced"
)

// SubmissionPayload is handed to the results stage exactly once per session.
type SubmissionPayload struct {
	Answers        []AnswerRecord `json:"answers"`
	Violations     []string       `json:"violations"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Reason         SubmitReason   `json:"reason"`
}

// QuestionOutcome is one row of the results breakdown.
type QuestionOutcome struct {
	QuestionID     string `json:"question_id"`
	QuestionText   string `json:"question_text"`
	Category       string `json:"category"`
	SelectedAnswer Option `json:"selected_answer"`
	CorrectAnswer  Option `json:"correct_answer"`
	Correct        bool   `json:"correct"`
}

// Report is the graded outcome of a submission.
type Report struct {
	Score          int               `json:"score"`
	Total          int               `json:"total"`
	Percentage     int               `json:"percentage"`
	Passed         bool              `json:"passed"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	ElapsedText    string            `json:"elapsed_text"`
	Violations     []string          `json:"violations"`
	Breakdown      []QuestionOutcome `json:"breakdown"`
}

// Feedback is the optional post-quiz rating.
type Feedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Label   string `json:"label"`
}

// FeedbackLabel returns the caption shown for a 1-5 star rating.
func FeedbackLabel(rating int) string {
	switch rating {
	case 1:
		return "Poor - We'll work to improve"
	case 2:
		return "Fair - There's room for improvement"
	case 3:
		return "Good - Thanks for your feedback"
	case 4:
		return "Very Good - We're glad you enjoyed it"
	case 5:
		return "Excellent - Thank you for the amazing feedback!"
	}
	return ""
}

// Stage is the screen an attempt is currently on.
type Stage string

const (
	StageVerification Stage = "verification"
	StageCamera       Stage = "camera"
	StageQuiz         Stage = "quiz"
	StageResults      Stage = "results"
	StageFeedback     Stage = "feedback"
)

// Attempt tracks one participant from login to feedback. It lives in memory only.
type Attempt struct {
	ID        string    `json:"id"`
	UserName  string    `json:"name"`
	Passkey   string    `json:"passkey"`
	Photo     string    `json:"-"`
	Stage     Stage     `json:"stage"`
	BankID    string    `json:"bank_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Report    *Report   `json:"report,omitempty"`
	Feedback  *Feedback `json:"feedback,omitempty"`
}
