package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edemy-quiz-service/internal/domain"
)

// Store is the Postgres document store: quizzes, courses and users live in
// JSONB columns, enrollments in a plain link table with a composite primary
// key. It backs both the authoring CRUD and the attempt-path cache loader.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.QuizDefinition, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("get quiz: %w", err)
	}
	var quiz domain.QuizDefinition
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return quiz, nil
}

// LoadQuiz satisfies the cache loader interfaces.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return s.GetQuiz(ctx, quizID)
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.QuizDefinition, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quizzes ORDER BY data->>'createdAt' DESC`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func (s *Store) ListQuizzesByCourse(ctx context.Context, courseID string, publishedOnly bool) ([]domain.QuizDefinition, error) {
	query := `SELECT data FROM quizzes WHERE course_id=$1`
	if publishedOnly {
		query += ` AND (data->>'isPublished')::boolean`
	}
	query += ` ORDER BY data->>'createdAt' DESC`

	rows, err := s.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes by course: %w", err)
	}
	defer rows.Close()
	return scanQuizzes(rows)
}

func (s *Store) CreateQuiz(ctx context.Context, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO quizzes (id, course_id, data) VALUES ($1, $2, $3)`, def.ID, def.CourseID, data)
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("insert quiz: %w", err)
	}
	return def, nil
}

func (s *Store) UpdateQuiz(ctx context.Context, id string, def domain.QuizDefinition) (domain.QuizDefinition, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET course_id=$2, data=$3 WHERE id=$1`, id, def.CourseID, data)
	if err != nil {
		return domain.QuizDefinition{}, fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	return def, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (domain.Course, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM courses WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("get course: %w", err)
	}
	var course domain.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return domain.Course{}, fmt.Errorf("unmarshal course: %w", err)
	}
	return course, nil
}

func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM courses ORDER BY data->>'createdAt' DESC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []domain.Course
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		var course domain.Course
		if err := json.Unmarshal(raw, &course); err != nil {
			return nil, fmt.Errorf("unmarshal course: %w", err)
		}
		out = append(out, course)
	}
	return out, rows.Err()
}

func (s *Store) CreateCourse(ctx context.Context, course domain.Course) (domain.Course, error) {
	data, err := json.Marshal(course)
	if err != nil {
		return domain.Course{}, fmt.Errorf("marshal course: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO courses (id, data) VALUES ($1, $2)`, course.ID, data); err != nil {
		return domain.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

func (s *Store) UpdateCourse(ctx context.Context, id string, course domain.Course) (domain.Course, error) {
	data, err := json.Marshal(course)
	if err != nil {
		return domain.Course{}, fmt.Errorf("marshal course: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE courses SET data=$2 WHERE id=$1`, id, data)
	if err != nil {
		return domain.Course{}, fmt.Errorf("update course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	return course, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

func (s *Store) IsEnrolled(ctx context.Context, courseID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id=$1 AND user_id=$2)`,
		courseID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// Enroll is idempotent: the composite primary key turns duplicate
// enrollments into no-ops, and the student count only moves on first insert.
func (s *Store) Enroll(ctx context.Context, courseID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO enrollments (course_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		courseID, userID)
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE courses SET data = jsonb_set(data, '{studentCount}', to_jsonb(COALESCE((data->>'studentCount')::int, 0) + 1)) WHERE id=$1`,
		courseID)
	if err != nil {
		return fmt.Errorf("bump student count: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM users WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return unmarshalUser(raw)
}

// CreateUserIfAbsent inserts behind the unique email constraint, so the
// exists check and the create cannot race.
func (s *Store) CreateUserIfAbsent(ctx context.Context, user domain.User) (domain.User, error) {
	data, err := marshalUser(user)
	if err != nil {
		return domain.User{}, err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, data) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING`,
		user.ID, user.Email, data)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.User{}, domain.ErrEmailTaken
	}
	return user, nil
}

// storedUser carries the password hash, which domain.User hides from JSON.
type storedUser struct {
	domain.User
	PasswordHash string `json:"passwordHash"`
}

func marshalUser(user domain.User) ([]byte, error) {
	data, err := json.Marshal(storedUser{User: user, PasswordHash: user.PasswordHash})
	if err != nil {
		return nil, fmt.Errorf("marshal user: %w", err)
	}
	return data, nil
}

func unmarshalUser(raw []byte) (domain.User, error) {
	var stored storedUser
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.User{}, fmt.Errorf("unmarshal user: %w", err)
	}
	user := stored.User
	user.PasswordHash = stored.PasswordHash
	return user, nil
}

func scanQuizzes(rows pgx.Rows) ([]domain.QuizDefinition, error) {
	var out []domain.QuizDefinition
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var quiz domain.QuizDefinition
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return nil, fmt.Errorf("unmarshal quiz: %w", err)
		}
		out = append(out, quiz)
	}
	return out, rows.Err()
}
