package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXAM REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ExamRepository implements exam.Repository for PostgreSQL.
type ExamRepository struct {
	conn *Connection
}

var _ exam.Repository = (*ExamRepository)(nil)

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(conn *Connection) *ExamRepository {
	return &ExamRepository{conn: conn}
}

// GetExam returns exam metadata.
func (r *ExamRepository) GetExam(ctx context.Context, examID string) (*exam.Exam, error) {
	if !isUUID(examID) {
		return nil, shared.ErrExamNotFound
	}

	query := `
		SELECT id, course_id, title, duration_minutes, total_points, created_at
		FROM exams
		WHERE id = $1
	`

	var e exam.Exam
	err := r.conn.QueryRow(ctx, query, examID).Scan(
		&e.ID, &e.CourseID, &e.Title, &e.DurationMinutes, &e.TotalPoints, &e.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return &e, nil
}

// GetQuestions returns the listed questions of examID keyed by id.
// Ids that are not questions of this exam are absent from the result.
func (r *ExamRepository) GetQuestions(ctx context.Context, examID string, questionIDs []string) (map[string]*exam.Question, error) {
	result := make(map[string]*exam.Question, len(questionIDs))
	if !isUUID(examID) {
		return result, nil
	}

	ids, keys := canonicalUUIDs(questionIDs)
	if len(ids) == 0 {
		return result, nil
	}

	query := `
		SELECT id, exam_id, question, question_type, options, correct_answer, points, position
		FROM exam_questions
		WHERE exam_id = $1 AND id = ANY($2::uuid[])
	`

	rows, err := r.conn.Query(ctx, query, examID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			q       exam.Question
			qType   string
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Text, &qType, &options, &q.CorrectAnswer, &q.Points, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Type = exam.QuestionType(qType)
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("failed to unmarshal options of question %s: %w", q.ID, err)
			}
		}
		for _, key := range keys[q.ID] {
			result[key] = &q
		}
	}

	return result, rows.Err()
}

// CreateAttempt inserts a new in-progress attempt.
func (r *ExamRepository) CreateAttempt(ctx context.Context, a *exam.Attempt) error {
	if !isUUID(a.ExamID) {
		return shared.ErrExamNotFound
	}

	query := `
		INSERT INTO exam_attempts (id, exam_id, student_id, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.conn.Exec(ctx, query, a.ID, a.ExamID, a.StudentID, a.StartedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.ErrExamNotFound
		}
		if IsUniqueViolation(err) {
			return shared.NewDomainError("exam", "CreateAttempt", shared.ErrAlreadyExists, "attempt already exists")
		}
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetAttempt returns an attempt with its answers ordered by question id.
func (r *ExamRepository) GetAttempt(ctx context.Context, attemptID string) (*exam.Attempt, error) {
	if !isUUID(attemptID) {
		return nil, shared.ErrAttemptNotFound
	}

	query := `
		SELECT id, exam_id, student_id, score, total_points, started_at, completed_at
		FROM exam_attempts
		WHERE id = $1
	`

	a, err := scanAttempt(r.conn.QueryRow(ctx, query, attemptID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	answers, err := r.listAnswers(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	a.Answers = answers
	return a, nil
}

// ListAttempts returns a student's attempts for an exam, newest first.
// Answers are not loaded.
func (r *ExamRepository) ListAttempts(ctx context.Context, examID, studentID string) ([]*exam.Attempt, error) {
	if !isUUID(examID) {
		return nil, nil
	}

	query := `
		SELECT id, exam_id, student_id, score, total_points, started_at, completed_at
		FROM exam_attempts
		WHERE exam_id = $1 AND student_id = $2
		ORDER BY started_at DESC, id DESC
	`

	rows, err := r.conn.Query(ctx, query, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var result []*exam.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CompleteAttempt closes the attempt and stores its answers in one
// transaction. The conditional update lets exactly one submission win.
func (r *ExamRepository) CompleteAttempt(ctx context.Context, a *exam.Attempt) error {
	if !isUUID(a.ID) {
		return shared.ErrAttemptNotFound
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE exam_attempts
			SET score = $2, total_points = $3, completed_at = $4
			WHERE id = $1 AND completed_at IS NULL
		`, a.ID, a.Score, a.TotalPoints, a.CompletedAt)
		if err != nil {
			return fmt.Errorf("failed to complete attempt: %w", err)
		}

		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM exam_attempts WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check attempt: %w", err)
			}
			if !exists {
				return shared.ErrAttemptNotFound
			}
			return shared.ErrAttemptCompleted
		}

		batch := &pgx.Batch{}
		for _, ans := range a.Answers {
			batch.Queue(`
				INSERT INTO exam_answers (id, attempt_id, question_id, answer, is_correct)
				VALUES ($1, $2, $3, $4, $5)
			`, ans.ID, a.ID, ans.QuestionID, ans.Answer, ans.IsCorrect)
		}

		br := tx.SendBatch(ctx, batch)
		for range a.Answers {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				if IsForeignKeyViolation(err) {
					return shared.ErrQuestionNotFound
				}
				if IsUniqueViolation(err) {
					return shared.ErrDuplicateAnswer
				}
				return fmt.Errorf("failed to insert answer: %w", err)
			}
		}
		return br.Close()
	})
}

// HasPerfectAttempt reports whether the student has a completed attempt
// with full marks over a non-zero total.
func (r *ExamRepository) HasPerfectAttempt(ctx context.Context, studentID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM exam_attempts
			WHERE student_id = $1
			  AND completed_at IS NOT NULL
			  AND total_points > 0
			  AND score = total_points
		)
	`

	var exists bool
	if err := r.conn.QueryRow(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check perfect attempt: %w", err)
	}
	return exists, nil
}

func (r *ExamRepository) listAnswers(ctx context.Context, attemptID string) ([]exam.Answer, error) {
	query := `
		SELECT id, attempt_id, question_id, answer, is_correct
		FROM exam_answers
		WHERE attempt_id = $1
		ORDER BY question_id
	`

	rows, err := r.conn.Query(ctx, query, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []exam.Answer
	for rows.Next() {
		var ans exam.Answer
		if err := rows.Scan(&ans.ID, &ans.AttemptID, &ans.QuestionID, &ans.Answer, &ans.IsCorrect); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, ans)
	}
	return answers, rows.Err()
}

func scanAttempt(row pgx.Row) (*exam.Attempt, error) {
	var a exam.Attempt
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Score, &a.TotalPoints, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
