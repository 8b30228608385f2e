package app

import (
	"testing"
	"time"

	"proctor-quiz-service/internal/domain"
)

func threeQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", CorrectAnswer: domain.OptionA},
		{ID: "q2", CorrectAnswer: domain.OptionB},
		{ID: "q3", CorrectAnswer: domain.OptionC},
	}
}

func TestBuildSubmissionDefaultsUnanswered(t *testing.T) {
	answers := map[string]domain.Option{"q3": domain.OptionD, "q1": domain.OptionA, "ghost": domain.OptionB}
	violations := []domain.Violation{
		{Description: "Tab switched at 1:00:00 PM", OccurredAt: time.Unix(1, 0)},
		{Description: "Tab switched at 1:00:01 PM", OccurredAt: time.Unix(2, 0)},
	}

	p := BuildSubmission(threeQuestions(), answers, violations, -5, domain.ReasonManual)
	want := []domain.AnswerRecord{
		{QuestionID: "q1", SelectedAnswer: domain.OptionA},
		{QuestionID: "q2", SelectedAnswer: domain.OptionNone},
		{QuestionID: "q3", SelectedAnswer: domain.OptionD},
	}
	if len(p.Answers) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(p.Answers))
	}
	for i := range want {
		if p.Answers[i] != want[i] {
			t.Fatalf("record %d: got %+v want %+v", i, p.Answers[i], want[i])
		}
	}
	if len(p.Violations) != 2 || p.Violations[1] != "Tab switched at 1:00:01 PM" {
		t.Fatalf("unexpected violations %v", p.Violations)
	}
	if p.ElapsedSeconds != 0 {
		t.Fatalf("expected elapsed clamped to 0, got %d", p.ElapsedSeconds)
	}
}

func TestGradeRoundsHalfUp(t *testing.T) {
	qs := threeQuestions()
	p := BuildSubmission(qs, map[string]domain.Option{"q1": domain.OptionA, "q2": domain.OptionB}, nil, 125, domain.ReasonManual)

	r := Grade(qs, p, DefaultPassMark)
	if r.Score != 2 || r.Total != 3 || r.Percentage != 67 || r.Passed {
		t.Fatalf("unexpected report %+v", r)
	}
	if r.ElapsedText != "2 min 5 sec" {
		t.Fatalf("unexpected elapsed text %q", r.ElapsedText)
	}
	if len(r.Breakdown) != 3 || !r.Breakdown[0].Correct || r.Breakdown[2].Correct {
		t.Fatalf("unexpected breakdown %+v", r.Breakdown)
	}

	eight := make([]domain.Question, 8)
	for i := range eight {
		eight[i] = domain.Question{ID: string(rune('a' + i)), CorrectAnswer: domain.OptionA}
	}
	one := BuildSubmission(eight, map[string]domain.Option{"a": domain.OptionA}, nil, 0, domain.ReasonTimeout)
	if got := Grade(eight, one, DefaultPassMark).Percentage; got != 13 {
		t.Fatalf("expected 12.5%% to round to 13, got %d", got)
	}
}

func TestGradeEmptyAnswersNeverMatch(t *testing.T) {
	qs := []domain.Question{{ID: "q1", CorrectAnswer: domain.OptionNone}}
	p := BuildSubmission(qs, nil, nil, 0, domain.ReasonTimeout)
	if r := Grade(qs, p, DefaultPassMark); r.Score != 0 || r.Passed {
		t.Fatalf("unanswered question must not score, got %+v", r)
	}
}
