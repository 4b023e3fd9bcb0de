package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"edemy-quiz-service/internal/app"
	"edemy-quiz-service/internal/domain"
	"edemy-quiz-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	server, store := newAttemptServer(t)
	defer server.Close()

	store.AddUser(domain.User{ID: "u1", Email: "alice@example.com"})
	if err := store.Enroll(context.Background(), "course-1", "u1"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	conn := dialAttempt(t, server, "quiz-1", "u1")
	defer conn.Close()

	// The server announces the attempt before anything else.
	_, started := readNext(conn, t, "started")
	if started["quizId"] != "quiz-1" {
		t.Fatalf("expected quizId quiz-1, got %v", started["quizId"])
	}
	if started["state"] != "in-progress" {
		t.Fatalf("expected in-progress state, got %v", started["state"])
	}

	// Answer the first question.
	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"question": 0, "option": 1},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, recorded := readNext(conn, t, "answerRecorded")
	if recorded["answeredCount"] != float64(1) {
		t.Fatalf("expected answeredCount 1, got %v", recorded["answeredCount"])
	}

	// Submitting with an unanswered question asks for confirmation.
	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	_, confirm := readNext(conn, t, "confirmSubmit")
	if confirm["unansweredCount"] != float64(1) {
		t.Fatalf("expected unansweredCount 1, got %v", confirm["unansweredCount"])
	}

	// Confirming produces the graded result.
	if err := conn.WriteJSON(map[string]any{"type": "confirmSubmit"}); err != nil {
		t.Fatalf("write confirmSubmit: %v", err)
	}
	_, results := readNext(conn, t, "results")
	if results["correctCount"] != float64(1) {
		t.Fatalf("expected correctCount 1, got %v", results["correctCount"])
	}
	if results["answeredCount"] != float64(1) {
		t.Fatalf("expected answeredCount 1, got %v", results["answeredCount"])
	}
}

func TestWebSocketDeclineResumesAttempt(t *testing.T) {
	server, store := newAttemptServer(t)
	defer server.Close()

	store.AddUser(domain.User{ID: "u2", Email: "bob@example.com"})
	if err := store.Enroll(context.Background(), "course-1", "u2"); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	conn := dialAttempt(t, server, "quiz-1", "u2")
	defer conn.Close()
	readNext(conn, t, "started")

	if err := conn.WriteJSON(map[string]any{"type": "submit"}); err != nil {
		t.Fatalf("write submit: %v", err)
	}
	readNext(conn, t, "confirmSubmit")

	if err := conn.WriteJSON(map[string]any{"type": "resume"}); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	// Answers are accepted again after resuming.
	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"question": 1, "text": "Paris"},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, recorded := readNext(conn, t, "answerRecorded")
	if recorded["answeredCount"] != float64(1) {
		t.Fatalf("expected answeredCount 1, got %v", recorded["answeredCount"])
	}
}

func TestWebSocketRejectsUnenrolledUser(t *testing.T) {
	server, store := newAttemptServer(t)
	defer server.Close()

	store.AddUser(domain.User{ID: "u3", Email: "eve@example.com"})

	conn := dialAttempt(t, server, "quiz-1", "u3")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "error")
	if msgType != "error" {
		t.Fatalf("expected error, got %s", msgType)
	}
	if payload["message"] == "" {
		t.Fatalf("expected error message")
	}
}

func newAttemptServer(t *testing.T) (*httptest.Server, *memory.DocumentStore) {
	t.Helper()
	store := memory.NewDocumentStore()
	ctx := context.Background()
	if _, err := store.CreateCourse(ctx, domain.Course{ID: "course-1", Title: "Intro to Go"}); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	quiz := sampleQuiz()
	quiz.ID = "quiz-1"
	if _, err := store.CreateQuiz(ctx, quiz); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	sessions := memory.NewSessionStore()
	quizRepo := memory.NewQuizRepository(store, time.Minute)
	service := app.NewQuizService(sessions, quizRepo, store, store, store)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/attempt", NewWSHandler(service).ServeWS)
	return httptest.NewServer(mux), store
}

func dialAttempt(t *testing.T, server *httptest.Server, quizID, userID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/attempt?quizId=" + quizID + "&userId=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		// Countdown ticks can interleave with the replies under test.
		if msg.Type == "tick" && expect != "tick" {
			continue
		}
		if expect != "" && msg.Type != expect {
			t.Fatalf("expected type %s, got %s", expect, msg.Type)
		}
		return msg.Type, msg.Payload
	}
}

func sampleQuiz() domain.QuizDefinition {
	return domain.QuizDefinition{
		CourseID:         "course-1",
		Title:            "Checkpoint",
		TimeLimitMinutes: 5,
		PassMarkPercent:  50,
		Questions: []domain.Question{
			{
				QuestionText: "What is 2 + 2?",
				QuestionType: domain.MultipleChoice,
				Points:       1,
				Options: []domain.Option{
					{Text: "3"},
					{Text: "4", IsCorrect: true},
					{Text: "5"},
				},
			},
			{
				QuestionText:  "Capital of France?",
				QuestionType:  domain.ShortAnswer,
				Points:        1,
				CorrectAnswer: "Paris",
			},
		},
	}
}
