package progress

import (
	"context"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// EnrollmentRepository reads enrollment rows.
type EnrollmentRepository interface {
	// ListByStudent returns every enrollment of the student.
	ListByStudent(ctx context.Context, studentID shared.UserID) ([]Enrollment, error)

	// CountCompleted returns the number of the student's courses at 100% progress.
	CountCompleted(ctx context.Context, studentID shared.UserID) (int, error)
}

// SubmissionRepository reads submission rows.
type SubmissionRepository interface {
	// CountGraded returns the number of the student's graded submissions.
	CountGraded(ctx context.Context, studentID shared.UserID) (int, error)

	// CountByStatusForTeacher counts submissions in courses owned by teacherID.
	CountByStatusForTeacher(ctx context.Context, teacherID shared.UserID) (map[SubmissionStatus]int, error)
}

// CourseRepository reads course ownership data.
type CourseRepository interface {
	// CountByTeacher returns the number of courses owned by teacherID.
	CountByTeacher(ctx context.Context, teacherID shared.UserID) (int, error)

	// CountDistinctStudents returns the number of distinct students enrolled
	// in any course owned by teacherID.
	CountDistinctStudents(ctx context.Context, teacherID shared.UserID) (int, error)
}
