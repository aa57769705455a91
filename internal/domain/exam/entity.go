// Package exam contains the exam attempt lifecycle: exams and their questions
// (owned by instructors, read-only here), attempts and the answers recorded
// when an attempt is submitted.
// This is a pure domain layer with zero external dependencies.
package exam

import (
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFreeText       QuestionType = "free_text"
)

// Exam is the exam metadata as stored by the course collaborator.
type Exam struct {
	ID              string
	CourseID        string
	Title           string
	DurationMinutes int

	// TotalPoints is the instructor-declared total. Attempt scoring never
	// reads it: an attempt's total covers answered questions only.
	TotalPoints int

	CreatedAt time.Time
}

// Question is a single exam question.
type Question struct {
	ID            string
	ExamID        string
	Text          string
	Type          QuestionType
	Options       []string
	CorrectAnswer string
	Points        int
	Position      int
}

// AttemptStatus is derived from CompletedAt.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// Attempt is one instance of a student taking an exam.
//
// Lifecycle: InProgress (CompletedAt nil, Score nil) -> Completed.
// Completed is terminal.
type Attempt struct {
	ID          string
	ExamID      string
	StudentID   string
	Score       *float64
	TotalPoints *int
	StartedAt   time.Time
	CompletedAt *time.Time

	// Answers is populated when the attempt is loaded with its answer rows.
	Answers []Answer
}

// NewAttempt creates a new in-progress attempt.
func NewAttempt(id, examID, studentID string, startedAt time.Time) (*Attempt, error) {
	if id == "" {
		return nil, shared.ErrInvalidAttemptID
	}
	if examID == "" {
		return nil, shared.ErrInvalidExamID
	}
	if studentID == "" {
		return nil, shared.ErrInvalidUserID
	}

	return &Attempt{
		ID:        id,
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: startedAt,
	}, nil
}

// Status returns the lifecycle state of the attempt.
func (a *Attempt) Status() AttemptStatus {
	if a.CompletedAt != nil {
		return AttemptCompleted
	}
	return AttemptInProgress
}

// IsCompleted returns true once the attempt has been submitted.
func (a *Attempt) IsCompleted() bool {
	return a.CompletedAt != nil
}

// BelongsTo reports whether the attempt was started by the given student.
func (a *Attempt) BelongsTo(studentID string) bool {
	return a.StudentID == studentID
}

// Complete applies a grading result and closes the attempt.
func (a *Attempt) Complete(result *Result, completedAt time.Time) error {
	if a.IsCompleted() {
		return shared.ErrAttemptCompleted
	}

	score := result.Score
	total := result.TotalPoints
	a.Score = &score
	a.TotalPoints = &total
	a.CompletedAt = &completedAt
	a.Answers = result.Answers
	return nil
}

// IsPerfect reports whether the attempt is completed with every answered
// point earned. Attempts with zero total points never count as perfect.
func (a *Attempt) IsPerfect() bool {
	if !a.IsCompleted() || a.Score == nil || a.TotalPoints == nil {
		return false
	}
	return *a.TotalPoints > 0 && *a.Score == float64(*a.TotalPoints)
}

// Answer is the stored outcome of one answered question. Immutable once written.
type Answer struct {
	ID         string
	AttemptID  string
	QuestionID string
	Answer     string
	IsCorrect  bool
}
