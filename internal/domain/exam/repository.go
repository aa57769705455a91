package exam

import (
	"context"
)

// Repository defines the interface for exam and attempt persistence.
// Exams and questions are written by the course collaborator; this core
// only reads them. Attempts and answers are owned here.
type Repository interface {
	// GetExam returns exam metadata or an error matching shared.ErrNotFound.
	GetExam(ctx context.Context, examID string) (*Exam, error)

	// GetQuestions returns the questions of examID whose ids are listed,
	// keyed by id. Unknown ids are simply absent from the map.
	GetQuestions(ctx context.Context, examID string, questionIDs []string) (map[string]*Question, error)

	// CreateAttempt persists a new in-progress attempt.
	CreateAttempt(ctx context.Context, attempt *Attempt) error

	// GetAttempt returns an attempt with its answers, or an error matching
	// shared.ErrNotFound.
	GetAttempt(ctx context.Context, attemptID string) (*Attempt, error)

	// ListAttempts returns a student's attempts for an exam, newest first.
	ListAttempts(ctx context.Context, examID, studentID string) ([]*Attempt, error)

	// CompleteAttempt atomically stores the answers and closes the attempt.
	// It succeeds only while the stored attempt is still in progress and
	// returns shared.ErrAttemptCompleted otherwise; nothing is written then.
	CompleteAttempt(ctx context.Context, attempt *Attempt) error

	// HasPerfectAttempt reports whether the student has at least one
	// completed attempt with score == total_points and total_points > 0.
	HasPerfectAttempt(ctx context.Context, studentID string) (bool, error)
}
