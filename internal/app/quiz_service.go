package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"edemy-quiz-service/internal/domain"
)

// SessionRepository abstracts how quiz attempts are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(key string, quiz domain.QuizDefinition) *Session
	Get(key string) (*Session, bool)
	Delete(key string)
}

// QuizRepository serves quiz definitions to the attempt path, typically from
// a cache in front of the document store.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	Invalidate(ctx context.Context, quizID string)
}

// QuizStore is the authoring-side document store for quiz definitions.
type QuizStore interface {
	GetQuiz(ctx context.Context, id string) (domain.QuizDefinition, error)
	ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error)
	ListQuizzesByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]domain.QuizDefinition, error)
	CreateQuiz(ctx context.Context, def domain.QuizDefinition) (domain.QuizDefinition, error)
	UpdateQuiz(ctx context.Context, id string, def domain.QuizDefinition) (domain.QuizDefinition, error)
	DeleteQuiz(ctx context.Context, id string) error
}

// CourseStore is the document store for catalog courses.
type CourseStore interface {
	GetCourse(ctx context.Context, id string) (domain.Course, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error)
	UpdateCourse(ctx context.Context, id string, course domain.Course) (domain.Course, error)
	DeleteCourse(ctx context.Context, id string) error
}

// EnrollmentStore tracks which users are enrolled in which courses, plus the
// user accounts enrollment may create.
type EnrollmentStore interface {
	IsEnrolled(ctx context.Context, courseID, userID string) (bool, error)
	Enroll(ctx context.Context, courseID, userID string) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	// CreateUserIfAbsent inserts the user keyed by unique email. It returns
	// domain.ErrEmailTaken when the email already has an account.
	CreateUserIfAbsent(ctx context.Context, user domain.User) (domain.User, error)
}

// QuizService contains the quiz use cases: authoring writes (always through
// NormalizeDefinition) and the attempt lifecycle.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	store    QuizStore
	courses  CourseStore
	enroll   EnrollmentStore
	now      func() time.Time
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, store QuizStore, courses CourseStore, enroll EnrollmentStore) *QuizService {
	return &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		store:    store,
		courses:  courses,
		enroll:   enroll,
		now:      time.Now,
	}
}

// GetQuiz returns a definition from the store.
func (s *QuizService) GetQuiz(ctx context.Context, id string) (domain.QuizDefinition, error) {
	return s.store.GetQuiz(ctx, id)
}

// ListQuizzes returns all definitions.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error) {
	return s.store.ListQuizzes(ctx)
}

// ListQuizzesByCourse returns the definitions attached to a course,
// optionally only published ones.
func (s *QuizService) ListQuizzesByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]domain.QuizDefinition, error) {
	return s.store.ListQuizzesByCourse(ctx, courseID, publishedOnly)
}

// CreateQuiz verifies the course, denormalizes its title into the
// definition, sanitizes, and saves.
func (s *QuizService) CreateQuiz(ctx context.Context, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	course, err := s.courses.GetCourse(ctx, def.CourseID)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	def.CourseName = course.Title

	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := s.now()
	def.CreatedAt = now
	def.UpdatedAt = now

	def, err = domain.NormalizeDefinition(def)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	return s.store.CreateQuiz(ctx, def)
}

// UpdateQuiz sanitizes and saves, re-verifying the course when it changes,
// then drops any cached copy so attempts see the new content.
func (s *QuizService) UpdateQuiz(ctx context.Context, id string, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	if def.CourseID != "" {
		course, err := s.courses.GetCourse(ctx, def.CourseID)
		if err != nil {
			return domain.QuizDefinition{}, err
		}
		def.CourseName = course.Title
	}
	def.ID = id
	def.UpdatedAt = s.now()

	def, err := domain.NormalizeDefinition(def)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	stored, err := s.store.UpdateQuiz(ctx, id, def)
	if err != nil {
		return domain.QuizDefinition{}, err
	}
	s.quizzes.Invalidate(ctx, id)
	return stored, nil
}

// DeleteQuiz removes a definition and its cached copy.
func (s *QuizService) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, id)
	return nil
}

// StartAttempt begins (or resumes) a learner's attempt at a quiz. Access is
// gated on enrollment in the owning course; finished attempts may only be
// replaced when the definition allows retakes.
func (s *QuizService) StartAttempt(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.enroll.IsEnrolled(ctx, quiz.CourseID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, domain.ErrEnrollmentRequired
	}

	key := attemptKey(quizID, userID)
	if existing, ok := s.sessions.Get(key); ok {
		switch existing.State() {
		case StateGraded:
			if !quiz.AllowRetakes {
				return nil, domain.ErrRetakeNotAllowed
			}
			s.sessions.Delete(key)
		default:
			existing.Begin()
			existing.Resume()
			return existing, nil
		}
	}

	session := s.sessions.GetOrCreate(key, quiz)
	session.Begin()
	return session, nil
}

// Attempt returns the live attempt for a learner, if any.
func (s *QuizService) Attempt(quizID, userID string) (*Session, bool) {
	return s.sessions.Get(attemptKey(quizID, userID))
}

// AttemptResult returns the grading result of a finished attempt.
func (s *QuizService) AttemptResult(quizID, userID string) (*domain.GradingResult, error) {
	session, ok := s.sessions.Get(attemptKey(quizID, userID))
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	result, ok := session.Result()
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return result, nil
}

// AbandonAttempt stops the attempt's countdown on navigation-away. The
// session stays resumable until graded.
func (s *QuizService) AbandonAttempt(quizID, userID string) {
	if session, ok := s.sessions.Get(attemptKey(quizID, userID)); ok {
		session.Suspend()
	}
}

// GetCourse returns a catalog course.
func (s *QuizService) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	return s.courses.GetCourse(ctx, id)
}

// ListCourses returns the catalog.
func (s *QuizService) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return s.courses.ListCourses(ctx)
}

// CreateCourse saves a new catalog course.
func (s *QuizService) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.Instructor == "" {
		course.Instructor = "Edemy"
	}
	if course.Level == "" {
		course.Level = "Beginner"
	}
	if course.Language == "" {
		course.Language = "English"
	}
	now := s.now()
	course.CreatedAt = now
	course.UpdatedAt = now
	return s.courses.CreateCourse(ctx, course)
}

// UpdateCourse saves changes to a catalog course.
func (s *QuizService) UpdateCourse(ctx context.Context, id string, course domain.Course) (domain.Course, error) {
	course.ID = id
	course.UpdatedAt = s.now()
	return s.courses.UpdateCourse(ctx, id, course)
}

// DeleteCourse removes a catalog course.
func (s *QuizService) DeleteCourse(ctx context.Context, id string) error {
	return s.courses.DeleteCourse(ctx, id)
}

// IsEnrolled reports whether a user is enrolled in a course.
func (s *QuizService) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	return s.enroll.IsEnrolled(ctx, courseID, userID)
}

// GuestEnrollment is the signup form payload for enrollment without an
// account.
type GuestEnrollment struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// EnrollUser enrolls an existing user in a course.
func (s *QuizService) EnrollUser(ctx context.Context, courseID, userID string) (domain.User, error) {
	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return domain.User{}, err
	}
	user, err := s.enroll.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.enroll.Enroll(ctx, courseID, userID); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnrollGuest creates an account for the email (with a throwaway password)
// and enrolls it. The account insert is an atomic unique-email upsert;
// if the email already has an account the caller is told to log in.
func (s *QuizService) EnrollGuest(ctx context.Context, courseID string, guest GuestEnrollment) (domain.User, error) {
	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return domain.User{}, err
	}
	if strings.TrimSpace(guest.Email) == "" || strings.TrimSpace(guest.FirstName) == "" || strings.TrimSpace(guest.LastName) == "" {
		return domain.User{}, domain.ErrEnrollmentInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	now := s.now()
	user, err := s.enroll.CreateUserIfAbsent(ctx, domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(guest.FirstName),
		LastName:     strings.TrimSpace(guest.LastName),
		Email:        strings.ToLower(strings.TrimSpace(guest.Email)),
		PasswordHash: string(hash),
		Role:         "student",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.User{}, err
	}
	if err := s.enroll.Enroll(ctx, courseID, user.ID); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func attemptKey(quizID, userID string) string {
	return quizID + ":" + userID
}
