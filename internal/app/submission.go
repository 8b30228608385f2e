package app

import (
	"fmt"
	"math"

	"proctor-quiz-service/internal/domain"
)

// BuildSubmission assembles the payload: one record per question in bank
// order, unanswered questions carry an empty selection.
func BuildSubmission(questions []domain.Question, answers map[string]domain.Option, violations []domain.Violation, elapsed int, reason domain.SubmitReason) domain.SubmissionPayload {
	records := make([]domain.AnswerRecord, 0, len(questions))
	for _, q := range questions {
		records = append(records, domain.AnswerRecord{
			QuestionID:     q.ID,
			SelectedAnswer: answers[q.ID],
		})
	}

	descriptions := make([]string, 0, len(violations))
	for _, v := range violations {
		descriptions = append(descriptions, v.Description)
	}

	if elapsed < 0 {
		elapsed = 0
	}
	return domain.SubmissionPayload{
		Answers:        records,
		Violations:     descriptions,
		ElapsedSeconds: elapsed,
		Reason:         reason,
	}
}

// DefaultPassMark is the minimum percentage that passes.
const DefaultPassMark = 70

// Grade scores a payload against the bank it was taken from.
func Grade(questions []domain.Question, payload domain.SubmissionPayload, passMark int) domain.Report {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	selected := make(map[string]domain.Option, len(payload.Answers))

	score := 0
	for _, a := range payload.Answers {
		selected[a.QuestionID] = a.SelectedAnswer
		if q, ok := byID[a.QuestionID]; ok && a.SelectedAnswer != domain.OptionNone && a.SelectedAnswer == q.CorrectAnswer {
			score++
		}
	}

	breakdown := make([]domain.QuestionOutcome, 0, len(questions))
	for _, q := range questions {
		sel := selected[q.ID]
		breakdown = append(breakdown, domain.QuestionOutcome{
			QuestionID:     q.ID,
			QuestionText:   q.QuestionText,
			Category:       q.Category,
			SelectedAnswer: sel,
			CorrectAnswer:  q.CorrectAnswer,
			Correct:        sel != domain.OptionNone && sel == q.CorrectAnswer,
		})
	}

	percentage := 0
	if len(questions) > 0 {
		percentage = int(math.Floor(100*float64(score)/float64(len(questions)) + 0.5))
	}

	violations := append([]string(nil), payload.Violations...)
	return domain.Report{
		Score:          score,
		Total:          len(questions),
		Percentage:     percentage,
		Passed:         percentage >= passMark,
		ElapsedSeconds: payload.ElapsedSeconds,
		ElapsedText:    FormatElapsed(payload.ElapsedSeconds),
		Violations:     violations,
		Breakdown:      breakdown,
	}
}

// FormatElapsed renders seconds as "X min Y sec".
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d min %d sec", seconds/60, seconds%60)
}
