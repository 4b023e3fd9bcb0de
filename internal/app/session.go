package app

import (
	"sync"
	"time"

	"edemy-quiz-service/internal/domain"
)

// SessionState is the lifecycle phase of a quiz attempt.
type SessionState string

const (
	StateNotStarted       SessionState = "not-started"
	StateInProgress       SessionState = "in-progress"
	StateConfirmingSubmit SessionState = "confirming-submit"
	StateSubmitting       SessionState = "submitting"
	StateGraded           SessionState = "graded"
)

// SessionEvent is pushed to subscribers: a countdown tick once per second
// while the attempt is in progress, and a graded event when the timer forces
// submission.
type SessionEvent struct {
	Type             string                `json:"type"` // "tick" or "graded"
	RemainingSeconds int                   `json:"remainingSeconds"`
	Result           *domain.GradingResult `json:"result,omitempty"`
}

// SubmitOutcome is the reply to a submit request: either a confirmation
// prompt (unanswered questions remain), a grading result, or neither when
// the call arrived on an attempt already past submission (stale, ignored).
type SubmitOutcome struct {
	NeedsConfirmation bool                  `json:"needsConfirmation"`
	AnsweredCount     int                   `json:"answeredCount"`
	UnansweredCount   int                   `json:"unansweredCount"`
	Result            *domain.GradingResult `json:"result,omitempty"`
}

// Session is one learner's attempt at a quiz. The countdown ticker is owned
// by the session and stopped on every exit from InProgress, so no stray tick
// can mutate a discarded attempt. A guard flag makes submission happen at
// most once, covering the race between a user submit and a timeout firing in
// the same tick.
type Session struct {
	mu          sync.Mutex
	id          string
	quiz        domain.QuizDefinition
	state       SessionState
	startedAt   time.Time
	remaining   int
	answers     map[int]domain.AnswerValue
	result      *domain.GradingResult
	submitted   bool
	now         func() time.Time
	manualClock bool
	stopTick    chan struct{}
	subscribers map[chan SessionEvent]struct{}
}

// NewSession creates an attempt in the NotStarted state.
func NewSession(id string, quiz domain.QuizDefinition) *Session {
	return newSessionWithClock(id, quiz, time.Now, false)
}

// NewSessionWithClock is test-only: the injected clock drives timestamps and
// the wall-clock ticker is disabled so tests call Tick directly.
func NewSessionWithClock(id string, quiz domain.QuizDefinition, now func() time.Time) *Session {
	return newSessionWithClock(id, quiz, now, true)
}

func newSessionWithClock(id string, quiz domain.QuizDefinition, now func() time.Time, manual bool) *Session {
	return &Session{
		id:          id,
		quiz:        quiz,
		state:       StateNotStarted,
		answers:     make(map[int]domain.AnswerValue),
		now:         now,
		manualClock: manual,
		subscribers: make(map[chan SessionEvent]struct{}),
	}
}

// ID returns the attempt identifier.
func (s *Session) ID() string { return s.id }

// Quiz returns the definition this attempt runs against.
func (s *Session) Quiz() domain.QuizDefinition { return s.quiz }

// State returns the current lifecycle phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemainingSeconds returns the countdown value.
func (s *Session) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Begin moves NotStarted to InProgress, records the start timestamp,
// initializes the countdown, and starts the ticker. Calling it on an
// already-started attempt is a no-op.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateNotStarted {
		return
	}
	s.state = StateInProgress
	s.startedAt = s.now()
	s.remaining = s.quiz.TimeLimitMinutes * 60
	s.startTickerLocked()
}

// RecordAnswer upserts the answer for a question index. Events arriving
// outside InProgress are silently ignored (stale-session guard).
func (s *Session) RecordAnswer(questionIndex int, value domain.AnswerValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return
	}
	if questionIndex < 0 || questionIndex >= len(s.quiz.Questions) {
		return
	}
	s.answers[questionIndex] = value
}

// Tick decrements the countdown by one second. At zero it forces submission
// directly, bypassing confirmation. Ticks outside InProgress are ignored.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.broadcastLocked(SessionEvent{Type: "tick", RemainingSeconds: s.remaining})
		return
	}
	s.remaining = 0
	result := s.submitLocked()
	if result != nil {
		s.broadcastLocked(SessionEvent{Type: "graded", Result: result})
	}
}

// RequestSubmit handles a user-initiated submit. With unanswered questions
// it moves to ConfirmingSubmit and returns a confirmation prompt; otherwise
// it submits directly. Stale calls return an empty outcome.
func (s *Session) RequestSubmit() SubmitOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInProgress:
		answered := s.answeredCountLocked()
		unanswered := len(s.quiz.Questions) - answered
		if unanswered > 0 {
			s.state = StateConfirmingSubmit
			s.stopTickerLocked()
			return SubmitOutcome{NeedsConfirmation: true, AnsweredCount: answered, UnansweredCount: unanswered}
		}
		return SubmitOutcome{Result: s.submitLocked(), AnsweredCount: answered}
	case StateConfirmingSubmit:
		answered := s.answeredCountLocked()
		return SubmitOutcome{NeedsConfirmation: true, AnsweredCount: answered, UnansweredCount: len(s.quiz.Questions) - answered}
	default:
		return SubmitOutcome{}
	}
}

// ConfirmSubmit completes a submit that was pending confirmation. Calls in
// any other state are ignored and return nil.
func (s *Session) ConfirmSubmit() *domain.GradingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfirmingSubmit {
		return nil
	}
	return s.submitLocked()
}

// DeclineSubmit resumes the attempt after the learner declines the
// confirmation prompt. The countdown picks up where it stopped.
func (s *Session) DeclineSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfirmingSubmit {
		return
	}
	s.state = StateInProgress
	s.startTickerLocked()
}

// Suspend stops the ticker without changing state, for navigation-away and
// disconnects. Resume restarts it if the attempt is still in progress.
func (s *Session) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
}

// Resume restarts the countdown after a Suspend.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInProgress {
		return
	}
	s.startTickerLocked()
}

// Result returns the grading result once the attempt is graded.
func (s *Session) Result() (*domain.GradingResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGraded || s.result == nil {
		return nil, false
	}
	return s.result, true
}

// AnsweredCount returns how many questions currently hold a real answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answeredCountLocked()
}

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan SessionEvent, func()) {
	ch := make(chan SessionEvent, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
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

func (s *Session) answeredCountLocked() int {
	count := 0
	for i, q := range s.quiz.Questions {
		if a, ok := s.answers[i]; ok && a.IsAnswered(q.QuestionType, len(q.Options)) {
			count++
		}
	}
	return count
}

// submitLocked is the single entry into Submitting. The submitted flag makes
// re-entrant calls no-ops.
func (s *Session) submitLocked() *domain.GradingResult {
	if s.submitted {
		return nil
	}
	s.submitted = true
	s.state = StateSubmitting
	s.stopTickerLocked()

	now := s.now()
	result := domain.Grade(s.quiz, s.answers, now.Sub(s.startedAt), now)
	s.result = &result
	s.state = StateGraded
	return &result
}

func (s *Session) startTickerLocked() {
	if s.manualClock || s.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	s.stopTick = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-stop:
				return
			}
		}
	}()
}

func (s *Session) stopTickerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

func (s *Session) broadcastLocked(ev SessionEvent) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest buffered event so slow readers never block.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
