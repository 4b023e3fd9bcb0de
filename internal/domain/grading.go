package domain

import (
	"math"
	"strings"
	"time"
)

// IsAnswered reports whether the value counts as an answer for a question of
// the given type. For short-answer questions blank text does not count; for
// choice questions a missing or out-of-range option index does not count.
func (a AnswerValue) IsAnswered(qt QuestionType, optionCount int) bool {
	if qt == ShortAnswer {
		return strings.TrimSpace(a.Text) != ""
	}
	return a.Option != nil && *a.Option >= 0 && *a.Option < optionCount
}

// Grade scores a set of answers against a quiz definition. It is a pure
// function: grading the same inputs twice yields the same result, so it can
// run on either side of the wire. Malformed or missing answers are treated
// as unanswered, never as errors.
func Grade(def QuizDefinition, answers map[int]AnswerValue, elapsed time.Duration, submittedAt time.Time) GradingResult {
	res := GradingResult{
		QuizID:           def.ID,
		PerQuestion:      make([]QuestionResult, 0, len(def.Questions)),
		TotalQuestions:   len(def.Questions),
		TimeTakenSeconds: int(elapsed.Seconds()),
		TimeTakenMinutes: round1(elapsed.Minutes()),
		SubmittedAt:      submittedAt,
	}

	for i, q := range def.Questions {
		res.TotalPoints += q.Points

		qr := QuestionResult{
			QuestionText:      q.QuestionText,
			QuestionType:      q.QuestionType,
			Points:            q.Points,
			CorrectAnswerText: correctAnswerText(q),
			Explanation:       q.Explanation,
		}

		answer, ok := answers[i]
		if !ok || !answer.IsAnswered(q.QuestionType, len(q.Options)) {
			res.PerQuestion = append(res.PerQuestion, qr)
			continue
		}

		qr.IsAnswered = true
		av := answer
		qr.UserAnswer = &av
		res.AnsweredCount++

		if q.QuestionType == ShortAnswer {
			qr.UserAnswerText = answer.Text
			qr.IsCorrect = normalizeAnswer(answer.Text) == normalizeAnswer(q.CorrectAnswer)
		} else {
			qr.UserAnswerText = q.Options[*answer.Option].Text
			qr.IsCorrect = *answer.Option == correctOptionIndex(q)
		}

		if qr.IsCorrect {
			res.CorrectCount++
			res.EarnedPoints += q.Points
		}
		res.PerQuestion = append(res.PerQuestion, qr)
	}

	res.WrongCount = res.AnsweredCount - res.CorrectCount
	if res.TotalPoints > 0 {
		res.Percentage = round1(100 * res.EarnedPoints / res.TotalPoints)
	}
	res.Passed = res.Percentage >= float64(def.PassMarkPercent)
	return res
}

// correctOptionIndex returns the index of the first option flagged correct,
// or -1 when none is. Zero or multiple correct flags are not rejected at
// write time; grading keys on the first match.
func correctOptionIndex(q Question) int {
	for i, opt := range q.Options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

func correctAnswerText(q Question) string {
	if q.QuestionType == ShortAnswer {
		return q.CorrectAnswer
	}
	if i := correctOptionIndex(q); i >= 0 {
		return q.Options[i].Text
	}
	return ""
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
