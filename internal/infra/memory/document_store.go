package memory

import (
	"context"
	"sort"
	"sync"

	"edemy-quiz-service/internal/domain"
)

// DocumentStore is an in-memory document store covering quizzes, courses,
// users and enrollments. It backs demos and handler tests when no Postgres
// is configured, and doubles as the cache loader via LoadQuiz.
type DocumentStore struct {
	mu          sync.RWMutex
	quizzes     map[string]domain.QuizDefinition
	courses     map[string]domain.Course
	users       map[string]domain.User
	byEmail     map[string]string
	enrollments map[string]struct{}
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		quizzes:     make(map[string]domain.QuizDefinition),
		courses:     make(map[string]domain.Course),
		users:       make(map[string]domain.User),
		byEmail:     make(map[string]string),
		enrollments: make(map[string]struct{}),
	}
}

func (s *DocumentStore) GetQuiz(_ context.Context, id string) (domain.QuizDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// LoadQuiz satisfies QuizLoader so the store can sit behind a cache.
func (s *DocumentStore) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *DocumentStore) ListQuizzes(_ context.Context) ([]domain.QuizDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizDefinition, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		out = append(out, q)
	}
	sortQuizzes(out)
	return out, nil
}

func (s *DocumentStore) ListQuizzesByCourse(_ context.Context, courseID string, publishedOnly bool) ([]domain.QuizDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizDefinition, 0)
	for _, q := range s.quizzes {
		if q.CourseID != courseID {
			continue
		}
		if publishedOnly && !q.IsPublished {
			continue
		}
		out = append(out, q)
	}
	sortQuizzes(out)
	return out, nil
}

func (s *DocumentStore) CreateQuiz(_ context.Context, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[def.ID] = def
	return def, nil
}

func (s *DocumentStore) UpdateQuiz(_ context.Context, id string, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	def.ID = id
	s.quizzes[id] = def
	return def, nil
}

func (s *DocumentStore) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, id)
	return nil
}

func (s *DocumentStore) GetCourse(_ context.Context, id string) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *DocumentStore) ListCourses(_ context.Context) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(s.courses))
	for _, c := range s.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *DocumentStore) CreateCourse(_ context.Context, course domain.Course) (domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[course.ID] = course
	return course, nil
}

func (s *DocumentStore) UpdateCourse(_ context.Context, id string, course domain.Course) (domain.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	course.ID = id
	s.courses[id] = course
	return course, nil
}

func (s *DocumentStore) DeleteCourse(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(s.courses, id)
	return nil
}

func (s *DocumentStore) IsEnrolled(_ context.Context, courseID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.enrollments[courseID+"/"+userID]
	return ok, nil
}

func (s *DocumentStore) Enroll(_ context.Context, courseID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := courseID + "/" + userID
	if _, ok := s.enrollments[key]; ok {
		return nil
	}
	s.enrollments[key] = struct{}{}
	if course, ok := s.courses[courseID]; ok {
		course.StudentCount++
		s.courses[courseID] = course
	}
	return nil
}

func (s *DocumentStore) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *DocumentStore) CreateUserIfAbsent(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.User{}, domain.ErrEmailTaken
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

// AddUser seeds an account directly (tests and demo data).
func (s *DocumentStore) AddUser(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
}

func sortQuizzes(out []domain.QuizDefinition) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}
