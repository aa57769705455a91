package memory

import (
	"context"
	"sort"

	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ExamRepository implements exam.Repository.
type ExamRepository struct {
	s *Store
}

var _ exam.Repository = (*ExamRepository)(nil)

// GetExam implements exam.Repository.
func (r *ExamRepository) GetExam(_ context.Context, examID string) (*exam.Exam, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.exams[examID]
	if !ok {
		return nil, shared.ErrExamNotFound
	}
	cp := *e
	return &cp, nil
}

// GetQuestions implements exam.Repository.
func (r *ExamRepository) GetQuestions(_ context.Context, examID string, questionIDs []string) (map[string]*exam.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[string]*exam.Question, len(questionIDs))
	for _, id := range questionIDs {
		q, ok := r.s.questions[id]
		if !ok || q.ExamID != examID {
			continue
		}
		cp := *q
		result[id] = &cp
	}
	return result, nil
}

// CreateAttempt implements exam.Repository.
func (r *ExamRepository) CreateAttempt(_ context.Context, attempt *exam.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.exams[attempt.ExamID]; !ok {
		return shared.ErrExamNotFound
	}
	if _, ok := r.s.attempts[attempt.ID]; ok {
		return shared.NewDomainError("exam", "CreateAttempt", shared.ErrAlreadyExists, "attempt already exists")
	}
	r.s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

// GetAttempt implements exam.Repository.
func (r *ExamRepository) GetAttempt(_ context.Context, attemptID string) (*exam.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.attempts[attemptID]
	if !ok {
		return nil, shared.ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

// ListAttempts implements exam.Repository.
func (r *ExamRepository) ListAttempts(_ context.Context, examID, studentID string) ([]*exam.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*exam.Attempt
	for _, a := range r.s.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			result = append(result, cloneAttempt(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

// CompleteAttempt implements exam.Repository.
func (r *ExamRepository) CompleteAttempt(_ context.Context, attempt *exam.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.attempts[attempt.ID]
	if !ok {
		return shared.ErrAttemptNotFound
	}
	if stored.IsCompleted() {
		return shared.ErrAttemptCompleted
	}
	r.s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

// HasPerfectAttempt implements exam.Repository.
func (r *ExamRepository) HasPerfectAttempt(_ context.Context, studentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.attempts {
		if a.StudentID == studentID && a.IsPerfect() {
			return true, nil
		}
	}
	return false, nil
}

func cloneAttempt(a *exam.Attempt) *exam.Attempt {
	cp := *a
	if a.Score != nil {
		v := *a.Score
		cp.Score = &v
	}
	if a.TotalPoints != nil {
		v := *a.TotalPoints
		cp.TotalPoints = &v
	}
	if a.CompletedAt != nil {
		v := *a.CompletedAt
		cp.CompletedAt = &v
	}
	cp.Answers = append([]exam.Answer(nil), a.Answers...)
	return &cp
}
