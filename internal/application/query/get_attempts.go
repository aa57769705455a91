package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// GetAttemptHandler returns attempts to the student who owns them.
type GetAttemptHandler struct {
	exams exam.Repository
}

// NewGetAttemptHandler creates a new GetAttemptHandler.
func NewGetAttemptHandler(exams exam.Repository) *GetAttemptHandler {
	return &GetAttemptHandler{exams: exams}
}

// Get returns one attempt with its answers.
func (h *GetAttemptHandler) Get(ctx context.Context, attemptID, studentID string) (*exam.Attempt, error) {
	if attemptID == "" {
		return nil, shared.ErrInvalidAttemptID
	}

	attempt, err := h.exams.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("get_attempt: %w", err)
	}
	if !attempt.BelongsTo(studentID) {
		return nil, shared.ErrAttemptNotOwned
	}
	return attempt, nil
}

// List returns the student's attempts for an exam, newest first.
func (h *GetAttemptHandler) List(ctx context.Context, examID, studentID string) ([]*exam.Attempt, error) {
	if examID == "" {
		return nil, shared.ErrInvalidExamID
	}

	if _, err := h.exams.GetExam(ctx, examID); err != nil {
		return nil, fmt.Errorf("list_attempts: %w", err)
	}

	attempts, err := h.exams.ListAttempts(ctx, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list_attempts: %w", err)
	}
	return attempts, nil
}
