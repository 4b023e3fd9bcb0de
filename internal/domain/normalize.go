package domain

import (
	"fmt"
	"strings"
)

// DefaultInstructions is used when a definition is saved without any.
const DefaultInstructions = "Read each question carefully and select the best answer."

// Valid reports whether a question survives sanitization: non-blank text,
// and for choice questions at least two options.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.QuestionText) == "" {
		return false
	}
	return q.QuestionType == ShortAnswer || len(q.Options) >= 2
}

// NormalizeDefinition is the single write-path sanitizer for quiz
// definitions. It drops invalid questions, defaults question types and
// points, and recomputes TotalQuestions and TotalPoints from the surviving
// questions. Every write entry point must go through it.
func NormalizeDefinition(def QuizDefinition) (QuizDefinition, error) {
	if def.TimeLimitMinutes <= 0 {
		return QuizDefinition{}, fmt.Errorf("%w: time limit must be positive, got %d", ErrValidationRejected, def.TimeLimitMinutes)
	}
	if def.PassMarkPercent < 0 || def.PassMarkPercent > 100 {
		return QuizDefinition{}, fmt.Errorf("%w: pass mark must be within [0,100], got %d", ErrValidationRejected, def.PassMarkPercent)
	}

	kept := make([]Question, 0, len(def.Questions))
	total := 0.0
	for _, q := range def.Questions {
		if q.QuestionType == "" {
			q.QuestionType = MultipleChoice
		}
		if !q.Valid() {
			continue
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		kept = append(kept, q)
		total += q.Points
	}
	if len(kept) == 0 {
		return QuizDefinition{}, fmt.Errorf("%w: no valid questions", ErrValidationRejected)
	}

	def.Questions = kept
	def.TotalQuestions = len(kept)
	def.TotalPoints = total
	if strings.TrimSpace(def.Instructions) == "" {
		def.Instructions = DefaultInstructions
	}
	return def, nil
}
