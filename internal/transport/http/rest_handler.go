package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"edemy-quiz-service/internal/app"
	"edemy-quiz-service/internal/domain"
)

// RESTHandler serves the authoring and catalog CRUD surface.
type RESTHandler struct {
	service *app.QuizService
}

func NewRESTHandler(service *app.QuizService) *RESTHandler {
	return &RESTHandler{service: service}
}

// Mount attaches the REST routes under /api.
func (h *RESTHandler) Mount(r chi.Router) {
	r.Route("/api/quizzes", func(r chi.Router) {
		r.Get("/", h.listQuizzes)
		r.Post("/", h.createQuiz)
		r.Get("/course/{courseID}", h.listQuizzesByCourse)
		r.Get("/{id}", h.getQuiz)
		r.Put("/{id}", h.updateQuiz)
		r.Delete("/{id}", h.deleteQuiz)
		r.Get("/{id}/attempt/{userID}/result", h.attemptResult)
	})
	r.Route("/api/courses", func(r chi.Router) {
		r.Get("/", h.listCourses)
		r.Post("/", h.createCourse)
		r.Get("/{id}", h.getCourse)
		r.Put("/{id}", h.updateCourse)
		r.Delete("/{id}", h.deleteCourse)
		r.Get("/{id}/enrollment/{userID}", h.checkEnrollment)
		r.Post("/{id}/enroll", h.enroll)
	})
}

func (h *RESTHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *RESTHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *RESTHandler) listQuizzesByCourse(w http.ResponseWriter, r *http.Request) {
	publishedOnly := r.URL.Query().Get("published") == "true"
	quizzes, err := h.service.ListQuizzesByCourse(r.Context(), chi.URLParam(r, "courseID"), publishedOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *RESTHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var def domain.QuizDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid quiz payload")
		return
	}
	stored, err := h.service.CreateQuiz(r.Context(), def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *RESTHandler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var def domain.QuizDefinition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid quiz payload")
		return
	}
	stored, err := h.service.UpdateQuiz(r.Context(), chi.URLParam(r, "id"), def)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *RESTHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "quiz deleted successfully")
}

func (h *RESTHandler) attemptResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AttemptResult(chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RESTHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.ListCourses(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *RESTHandler) getCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (h *RESTHandler) createCourse(w http.ResponseWriter, r *http.Request) {
	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid course payload")
		return
	}
	stored, err := h.service.CreateCourse(r.Context(), course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *RESTHandler) updateCourse(w http.ResponseWriter, r *http.Request) {
	var course domain.Course
	if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid course payload")
		return
	}
	stored, err := h.service.UpdateCourse(r.Context(), chi.URLParam(r, "id"), course)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *RESTHandler) deleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "course deleted successfully")
}

func (h *RESTHandler) checkEnrollment(w http.ResponseWriter, r *http.Request) {
	enrolled, err := h.service.IsEnrolled(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isEnrolled": enrolled})
}

type enrollRequest struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (h *RESTHandler) enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid enrollment payload")
		return
	}

	courseID := chi.URLParam(r, "id")
	var (
		user domain.User
		err  error
	)
	if req.UserID != "" {
		user, err = h.service.EnrollUser(r.Context(), courseID, req.UserID)
	} else {
		user, err = h.service.EnrollGuest(r.Context(), courseID, app.GuestEnrollment{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		})
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Enrollment successful",
		"user":    user,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAttemptNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidationRejected),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrEnrollmentInvalid):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEnrollmentRequired),
		errors.Is(err, domain.ErrRetakeNotAllowed):
		writeMessage(w, http.StatusForbidden, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, err.Error())
	}
}
