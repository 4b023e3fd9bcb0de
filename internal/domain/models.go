package domain

import "time"

// QuestionType tags the three question variants a quiz may contain.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple-choice"
	TrueFalse      QuestionType = "true-false"
	ShortAnswer    QuestionType = "short-answer"
)

// Option is one possible answer for a choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is a single authored question. Options is populated for
// multiple-choice and true-false questions; CorrectAnswer for short-answer.
type Question struct {
	QuestionText  string       `json:"questionText"`
	QuestionType  QuestionType `json:"questionType"`
	Points        float64      `json:"points"` // defaults to 1 if zero
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}

// QuizDefinition is authored quiz content, immutable during an attempt.
// TotalQuestions and TotalPoints are derived; they are recomputed on every
// write and never trusted from the caller.
type QuizDefinition struct {
	ID                         string     `json:"id"`
	CourseID                   string     `json:"courseId"`
	CourseName                 string     `json:"courseName"`
	Title                      string     `json:"title"`
	Subtitle                   string     `json:"subtitle,omitempty"`
	Description                string     `json:"description"`
	Instructions               string     `json:"instructions"`
	TimeLimitMinutes           int        `json:"timeLimit"`
	PassMarkPercent            int        `json:"passMark"`
	TotalQuestions             int        `json:"totalQuestions"`
	TotalPoints                float64    `json:"totalPoints"`
	Questions                  []Question `json:"questions"`
	LearningOutcomes           []string   `json:"learningOutcomes,omitempty"`
	IsPublished                bool       `json:"isPublished"`
	AllowRetakes               bool       `json:"allowRetakes"`
	ShowAnswersAfterSubmission bool       `json:"showAnswersAfterSubmission"`
	RandomizeQuestions         bool       `json:"randomizeQuestions"`
	CreatedAt                  time.Time  `json:"createdAt"`
	UpdatedAt                  time.Time  `json:"updatedAt"`
}

// AnswerValue is a learner's response to one question: an option index for
// choice questions or free text for short-answer questions.
type AnswerValue struct {
	Option *int   `json:"option,omitempty"`
	Text   string `json:"text,omitempty"`
}

// QuestionResult is the graded outcome for a single question, in definition
// order.
type QuestionResult struct {
	QuestionText      string       `json:"questionText"`
	QuestionType      QuestionType `json:"questionType"`
	Points            float64      `json:"points"`
	IsAnswered        bool         `json:"isAnswered"`
	IsCorrect         bool         `json:"isCorrect"`
	UserAnswer        *AnswerValue `json:"userAnswer,omitempty"`
	UserAnswerText    string       `json:"userAnswerText,omitempty"`
	CorrectAnswerText string       `json:"correctAnswerText"`
	Explanation       string       `json:"explanation,omitempty"`
}

// GradingResult is the computed outcome of a submitted attempt. Unanswered
// questions are their own category: answeredCount == correctCount + wrongCount.
type GradingResult struct {
	QuizID           string           `json:"quizId"`
	PerQuestion      []QuestionResult `json:"perQuestion"`
	CorrectCount     int              `json:"correctCount"`
	WrongCount       int              `json:"wrongCount"`
	AnsweredCount    int              `json:"answeredCount"`
	TotalQuestions   int              `json:"totalQuestions"`
	EarnedPoints     float64          `json:"earnedPoints"`
	TotalPoints      float64          `json:"totalPoints"`
	Percentage       float64          `json:"percentage"` // one decimal place
	Passed           bool             `json:"passed"`
	TimeTakenSeconds int              `json:"timeTakenSeconds"`
	TimeTakenMinutes float64          `json:"timeTakenMinutes"` // one decimal place
	SubmittedAt      time.Time        `json:"submissionTime"`
}

// Lecture is one entry in a syllabus section.
type Lecture struct {
	Title       string `json:"title"`
	Duration    string `json:"duration,omitempty"`
	VideoID     string `json:"videoId,omitempty"`
	Description string `json:"description,omitempty"`
}

// SyllabusSection groups lectures under a section heading.
type SyllabusSection struct {
	Section  string    `json:"section"`
	Lectures []Lecture `json:"lectures,omitempty"`
}

// Course is a marketplace catalog entry.
type Course struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Subtitle         string            `json:"subtitle"`
	Description      string            `json:"description"`
	Instructor       string            `json:"instructor"`
	Price            float64           `json:"price"`
	OriginalPrice    float64           `json:"originalPrice"`
	Rating           float64           `json:"rating"`
	ReviewCount      int               `json:"reviewCount"`
	StudentCount     int               `json:"studentCount"`
	Thumbnail        string            `json:"thumbnail"`
	Duration         string            `json:"duration"`
	Lessons          int               `json:"lessons"`
	Category         string            `json:"category"`
	Syllabus         []SyllabusSection `json:"syllabus,omitempty"`
	LearningOutcomes []string          `json:"learningOutcomes,omitempty"`
	Requirements     []string          `json:"requirements,omitempty"`
	Level            string            `json:"level"`
	Language         string            `json:"language"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// User is a learner account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
