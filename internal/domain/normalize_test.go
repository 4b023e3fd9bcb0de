package domain

import (
	"errors"
	"testing"
)

func TestNormalizeDropsInvalidQuestions(t *testing.T) {
	def := QuizDefinition{
		TimeLimitMinutes: 30,
		PassMarkPercent:  70,
		Questions: []Question{
			mcQuestion("What is 2 + 2?", 1, 1),
			mcQuestion("   ", 1, 0), // blank text, dropped
			{QuestionText: "Capital of France?", QuestionType: ShortAnswer, CorrectAnswer: "Paris", Points: 2},
		},
	}

	got, err := NormalizeDefinition(def)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.TotalQuestions != 2 {
		t.Fatalf("expected 2 surviving questions, got %d", got.TotalQuestions)
	}
	if got.TotalPoints != 3 {
		t.Fatalf("expected totalPoints 3, got %v", got.TotalPoints)
	}
	if len(got.Questions) != got.TotalQuestions {
		t.Fatalf("totalQuestions %d != len(questions) %d", got.TotalQuestions, len(got.Questions))
	}
}

func TestNormalizeDropsChoiceQuestionWithOneOption(t *testing.T) {
	def := QuizDefinition{
		TimeLimitMinutes: 10,
		PassMarkPercent:  50,
		Questions: []Question{
			{QuestionText: "Lonely option", QuestionType: MultipleChoice, Points: 1, Options: []Option{{Text: "only", IsCorrect: true}}},
			mcQuestion("Keeper", 1, 0),
		},
	}

	got, err := NormalizeDefinition(def)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.TotalQuestions != 1 || got.Questions[0].QuestionText != "Keeper" {
		t.Fatalf("expected only the two-option question to survive, got %+v", got.Questions)
	}
}

func TestNormalizeRejectsEmptyResult(t *testing.T) {
	def := QuizDefinition{
		TimeLimitMinutes: 30,
		PassMarkPercent:  70,
		Questions:        []Question{mcQuestion("", 1, 0)},
	}
	if _, err := NormalizeDefinition(def); !errors.Is(err, ErrValidationRejected) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestNormalizeRejectsOutOfRangeSettings(t *testing.T) {
	base := QuizDefinition{
		PassMarkPercent: 70,
		Questions:       []Question{mcQuestion("ok?", 1, 0)},
	}
	if _, err := NormalizeDefinition(base); !errors.Is(err, ErrValidationRejected) {
		t.Fatalf("expected rejection for zero time limit, got %v", err)
	}

	base.TimeLimitMinutes = 30
	base.PassMarkPercent = 101
	if _, err := NormalizeDefinition(base); !errors.Is(err, ErrValidationRejected) {
		t.Fatalf("expected rejection for pass mark > 100, got %v", err)
	}
}

func TestNormalizeDefaultsTypePointsAndInstructions(t *testing.T) {
	def := QuizDefinition{
		TimeLimitMinutes: 5,
		PassMarkPercent:  0,
		Questions: []Question{
			{QuestionText: "Untyped", Options: []Option{{Text: "a", IsCorrect: true}, {Text: "b"}}},
		},
	}

	got, err := NormalizeDefinition(def)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	q := got.Questions[0]
	if q.QuestionType != MultipleChoice {
		t.Fatalf("expected defaulted type, got %q", q.QuestionType)
	}
	if q.Points != 1 {
		t.Fatalf("expected defaulted points 1, got %v", q.Points)
	}
	if got.Instructions != DefaultInstructions {
		t.Fatalf("expected default instructions, got %q", got.Instructions)
	}
}

// NormalizeDefinition never trusts derived fields from the caller.
func TestNormalizeOverwritesCallerDerivedFields(t *testing.T) {
	def := QuizDefinition{
		TimeLimitMinutes: 30,
		PassMarkPercent:  70,
		TotalQuestions:   99,
		TotalPoints:      1234,
		Questions:        []Question{mcQuestion("Only one", 5, 0)},
	}

	got, err := NormalizeDefinition(def)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.TotalQuestions != 1 || got.TotalPoints != 5 {
		t.Fatalf("expected recomputed 1/5, got %d/%v", got.TotalQuestions, got.TotalPoints)
	}
}

// mcQuestion builds a two-option multiple-choice question with the option at
// correctIdx flagged correct.
func mcQuestion(text string, points float64, correctIdx int) Question {
	opts := []Option{{Text: "first"}, {Text: "second"}}
	opts[correctIdx].IsCorrect = true
	return Question{
		QuestionText: text,
		QuestionType: MultipleChoice,
		Points:       points,
		Options:      opts,
	}
}
