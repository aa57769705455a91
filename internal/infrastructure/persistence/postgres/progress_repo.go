package postgres

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ProgressRepository reads the course collaborator's tables.
type ProgressRepository struct {
	conn *Connection
}

var (
	_ progress.EnrollmentRepository = (*ProgressRepository)(nil)
	_ progress.SubmissionRepository = (*ProgressRepository)(nil)
	_ progress.CourseRepository     = (*ProgressRepository)(nil)
)

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// ListByStudent returns the student's enrollments.
func (r *ProgressRepository) ListByStudent(ctx context.Context, studentID shared.UserID) ([]progress.Enrollment, error) {
	query := `
		SELECT course_id, progress, enrolled_at
		FROM enrollments
		WHERE student_id = $1
		ORDER BY enrolled_at
	`

	rows, err := r.conn.Query(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var result []progress.Enrollment
	for rows.Next() {
		e := progress.Enrollment{StudentID: studentID}
		if err := rows.Scan(&e.CourseID, &e.Progress, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CountCompleted counts the student's courses at 100% progress.
func (r *ProgressRepository) CountCompleted(ctx context.Context, studentID shared.UserID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND progress >= 100`, studentID)
}

// CountGraded counts the student's graded submissions.
func (r *ProgressRepository) CountGraded(ctx context.Context, studentID shared.UserID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id = $1 AND status = 'graded'`, studentID)
}

// CountByStatusForTeacher counts submissions in the teacher's courses per status.
func (r *ProgressRepository) CountByStatusForTeacher(ctx context.Context, teacherID shared.UserID) (map[progress.SubmissionStatus]int, error) {
	query := `
		SELECT s.status, COUNT(*)
		FROM submissions s
		JOIN courses c ON c.id = s.course_id
		WHERE c.teacher_id = $1
		GROUP BY s.status
	`

	rows, err := r.conn.Query(ctx, query, teacherID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}
	defer rows.Close()

	result := make(map[progress.SubmissionStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan submission count: %w", err)
		}
		result[progress.SubmissionStatus(status)] = n
	}
	return result, rows.Err()
}

// CountByTeacher counts the courses the teacher owns.
func (r *ProgressRepository) CountByTeacher(ctx context.Context, teacherID shared.UserID) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM courses WHERE teacher_id = $1`, teacherID)
}

// CountDistinctStudents counts distinct students across the teacher's courses.
func (r *ProgressRepository) CountDistinctStudents(ctx context.Context, teacherID shared.UserID) (int, error) {
	return r.count(ctx, `
		SELECT COUNT(DISTINCT e.student_id)
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE c.teacher_id = $1
	`, teacherID)
}

func (r *ProgressRepository) count(ctx context.Context, query string, userID shared.UserID) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, query, userID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}
