package app

import (
	"testing"
	"time"

	"edemy-quiz-service/internal/domain"
)

func TestSessionBeginInitializesCountdown(t *testing.T) {
	session, _ := newTestSession(t, threeQuestionQuiz())

	if session.State() != StateNotStarted {
		t.Fatalf("expected not-started, got %s", session.State())
	}
	session.Begin()
	if session.State() != StateInProgress {
		t.Fatalf("expected in-progress, got %s", session.State())
	}
	if session.RemainingSeconds() != 60 {
		t.Fatalf("expected 60 remaining seconds, got %d", session.RemainingSeconds())
	}

	// Begin is a no-op once started.
	session.Tick()
	session.Begin()
	if session.RemainingSeconds() != 59 {
		t.Fatalf("expected re-begin to be ignored, got %d remaining", session.RemainingSeconds())
	}
}

func TestSessionSubmitWithUnansweredRequiresConfirmation(t *testing.T) {
	session, _ := newTestSession(t, threeQuestionQuiz())
	session.Begin()
	session.RecordAnswer(0, optionAnswer(1))

	outcome := session.RequestSubmit()
	if !outcome.NeedsConfirmation {
		t.Fatalf("expected confirmation request, got %+v", outcome)
	}
	if outcome.Result != nil {
		t.Fatalf("expected no grading result before confirmation")
	}
	if outcome.AnsweredCount != 1 || outcome.UnansweredCount != 2 {
		t.Fatalf("expected 1 answered / 2 unanswered, got %+v", outcome)
	}
	if session.State() != StateConfirmingSubmit {
		t.Fatalf("expected confirming-submit, got %s", session.State())
	}

	result := session.ConfirmSubmit()
	if result == nil {
		t.Fatalf("expected grading result after confirmation")
	}
	if session.State() != StateGraded {
		t.Fatalf("expected graded, got %s", session.State())
	}
}

func TestSessionSubmitFullyAnsweredSkipsConfirmation(t *testing.T) {
	session, _ := newTestSession(t, threeQuestionQuiz())
	session.Begin()
	session.RecordAnswer(0, optionAnswer(1))
	session.RecordAnswer(1, optionAnswer(0))
	session.RecordAnswer(2, domain.AnswerValue{Text: "paris"})

	outcome := session.RequestSubmit()
	if outcome.NeedsConfirmation {
		t.Fatalf("expected direct submission with all questions answered")
	}
	if outcome.Result == nil {
		t.Fatalf("expected grading result")
	}
	if outcome.Result.CorrectCount != 3 {
		t.Fatalf("expected 3 correct, got %+v", outcome.Result)
	}
}

func TestSessionDeclineResumesAttempt(t *testing.T) {
	session, _ := newTestSession(t, threeQuestionQuiz())
	session.Begin()
	session.Tick()

	session.RequestSubmit()
	if session.State() != StateConfirmingSubmit {
		t.Fatalf("expected confirming-submit, got %s", session.State())
	}
	// Answer entry while paused on the prompt is ignored.
	session.RecordAnswer(0, optionAnswer(1))

	session.DeclineSubmit()
	if session.State() != StateInProgress {
		t.Fatalf("expected in-progress after decline, got %s", session.State())
	}
	if session.AnsweredCount() != 0 {
		t.Fatalf("expected answer during confirmation to be ignored")
	}
	if session.RemainingSeconds() != 59 {
		t.Fatalf("expected countdown to resume where it stopped, got %d", session.RemainingSeconds())
	}
}

func TestSessionTimeoutForcesSubmission(t *testing.T) {
	session, clock := newTestSession(t, threeQuestionQuiz())
	session.Begin()
	session.RecordAnswer(0, optionAnswer(1))

	events, cancel := session.Subscribe()
	defer cancel()

	for i := 0; i < 60; i++ {
		clock.advance(time.Second)
		session.Tick()
	}

	if session.State() != StateGraded {
		t.Fatalf("expected forced submission at zero, got %s", session.State())
	}
	result, ok := session.Result()
	if !ok {
		t.Fatalf("expected grading result after timeout")
	}
	// Unanswered questions are excluded from the wrong tally.
	if result.WrongCount != 0 || result.CorrectCount != 1 || result.AnsweredCount != 1 {
		t.Fatalf("unexpected tallies after timeout: %+v", result)
	}
	if result.TimeTakenSeconds != 60 {
		t.Fatalf("expected 60s elapsed, got %d", result.TimeTakenSeconds)
	}

	sawGraded := false
	for len(events) > 0 {
		if ev := <-events; ev.Type == "graded" && ev.Result != nil {
			sawGraded = true
		}
	}
	if !sawGraded {
		t.Fatalf("expected graded event on the subscription")
	}
}

func TestSessionStaleEventsAreIgnored(t *testing.T) {
	session, _ := newTestSession(t, threeQuestionQuiz())
	session.Begin()
	session.RecordAnswer(0, optionAnswer(1))
	session.RecordAnswer(1, optionAnswer(0))
	session.RecordAnswer(2, domain.AnswerValue{Text: "paris"})

	first := session.RequestSubmit()
	if first.Result == nil {
		t.Fatalf("expected result from first submit")
	}

	// Re-entrant submits produce no second result and no state change.
	if second := session.RequestSubmit(); second.Result != nil || second.NeedsConfirmation {
		t.Fatalf("expected stale submit to be ignored, got %+v", second)
	}
	if result := session.ConfirmSubmit(); result != nil {
		t.Fatalf("expected stale confirm to be ignored")
	}

	remaining := session.RemainingSeconds()
	session.Tick()
	session.RecordAnswer(0, optionAnswer(0))
	if session.RemainingSeconds() != remaining {
		t.Fatalf("expected tick on graded session to be ignored")
	}
	if session.State() != StateGraded {
		t.Fatalf("expected graded state to be terminal, got %s", session.State())
	}

	stored, ok := session.Result()
	if !ok || stored.CorrectCount != first.Result.CorrectCount {
		t.Fatalf("expected stored result unchanged")
	}
}

func TestSessionTickEmitsEvents(t *testing.T) {
	session, clock := newTestSession(t, threeQuestionQuiz())
	session.Begin()

	events, cancel := session.Subscribe()
	defer cancel()

	clock.advance(time.Second)
	session.Tick()

	ev := <-events
	if ev.Type != "tick" || ev.RemainingSeconds != 59 {
		t.Fatalf("expected tick event with 59s, got %+v", ev)
	}
}

// testClock is a manual clock for deterministic sessions.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(t *testing.T, quiz domain.QuizDefinition) (*Session, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	session := NewSessionWithClock("quiz-1:u1", quiz, func() time.Time { return clock.now })
	return session, clock
}

func threeQuestionQuiz() domain.QuizDefinition {
	return domain.QuizDefinition{
		ID:               "quiz-1",
		CourseID:         "course-1",
		Title:            "Go basics",
		TimeLimitMinutes: 1,
		PassMarkPercent:  70,
		TotalQuestions:   3,
		TotalPoints:      3,
		AllowRetakes:     true,
		Questions: []domain.Question{
			{
				QuestionText: "Select the right option",
				QuestionType: domain.MultipleChoice,
				Points:       1,
				Options: []domain.Option{
					{Text: "Wrong"},
					{Text: "Right", IsCorrect: true},
				},
			},
			{
				QuestionText: "Go is compiled",
				QuestionType: domain.TrueFalse,
				Points:       1,
				Options: []domain.Option{
					{Text: "True", IsCorrect: true},
					{Text: "False"},
				},
			},
			{
				QuestionText:  "Capital of France?",
				QuestionType:  domain.ShortAnswer,
				CorrectAnswer: "Paris",
				Points:        1,
			},
		},
	}
}

func optionAnswer(i int) domain.AnswerValue {
	return domain.AnswerValue{Option: &i}
}
