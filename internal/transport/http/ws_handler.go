package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"edemy-quiz-service/internal/app"
	"edemy-quiz-service/internal/domain"
)

// WSHandler runs the quiz-taking flow over a websocket: the client starts an
// attempt, records answers and submits; the server pushes countdown ticks
// and, on timer expiry, the forced-submit grading result.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// answerPayload carries either an option index (choice questions) or free
// text (short answer), never both.
type answerPayload struct {
	Question int    `json:"question"`
	Option   *int   `json:"option,omitempty"`
	Text     string `json:"text,omitempty"`
}

type startedPayload struct {
	QuizID           string `json:"quizId"`
	Title            string `json:"title"`
	TotalQuestions   int    `json:"totalQuestions"`
	RemainingSeconds int    `json:"remainingSeconds"`
	State            string `json:"state"`
}

type answerRecordedPayload struct {
	Question      int `json:"question"`
	AnsweredCount int `json:"answeredCount"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into an attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartAttempt(r.Context(), quizID, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	events, cancel := session.Subscribe()
	defer cancel()
	defer h.service.AbandonAttempt(quizID, userID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				msg := outboundMessage[any]{Type: ev.Type, Payload: ev}
				if ev.Type == "graded" {
					msg = outboundMessage[any]{Type: "results", Payload: ev.Result}
				}
				select {
				case send <- msg:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	quiz := session.Quiz()
	send <- outboundMessage[any]{Type: "started", Payload: startedPayload{
		QuizID:           quiz.ID,
		Title:            quiz.Title,
		TotalQuestions:   quiz.TotalQuestions,
		RemainingSeconds: session.RemainingSeconds(),
		State:            string(session.State()),
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			session.RecordAnswer(payload.Question, domain.AnswerValue{Option: payload.Option, Text: payload.Text})
			send <- outboundMessage[any]{Type: "answerRecorded", Payload: answerRecordedPayload{
				Question:      payload.Question,
				AnsweredCount: session.AnsweredCount(),
			}}
		case "submit":
			outcome := session.RequestSubmit()
			switch {
			case outcome.NeedsConfirmation:
				send <- outboundMessage[any]{Type: "confirmSubmit", Payload: outcome}
			case outcome.Result != nil:
				send <- outboundMessage[any]{Type: "results", Payload: outcome.Result}
			}
		case "confirmSubmit":
			if result := session.ConfirmSubmit(); result != nil {
				send <- outboundMessage[any]{Type: "results", Payload: result}
			}
		case "resume":
			session.DeclineSubmit()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
