package memory

import (
	"context"

	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ProgressRepository implements the read-only progress repositories over
// collaborator-owned rows.
type ProgressRepository struct {
	s *Store
}

var (
	_ progress.EnrollmentRepository = (*ProgressRepository)(nil)
	_ progress.SubmissionRepository = (*ProgressRepository)(nil)
	_ progress.CourseRepository     = (*ProgressRepository)(nil)
)

// ListByStudent implements progress.EnrollmentRepository.
func (r *ProgressRepository) ListByStudent(_ context.Context, studentID shared.UserID) ([]progress.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []progress.Enrollment
	for _, e := range r.s.enrollments {
		if e.StudentID == studentID {
			result = append(result, e)
		}
	}
	return result, nil
}

// CountCompleted implements progress.EnrollmentRepository.
func (r *ProgressRepository) CountCompleted(_ context.Context, studentID shared.UserID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, e := range r.s.enrollments {
		if e.StudentID == studentID && e.IsCompleted() {
			n++
		}
	}
	return n, nil
}

// CountGraded implements progress.SubmissionRepository.
func (r *ProgressRepository) CountGraded(_ context.Context, studentID shared.UserID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, sub := range r.s.submissions {
		if sub.StudentID == studentID && sub.Status == progress.SubmissionGraded {
			n++
		}
	}
	return n, nil
}

// CountByStatusForTeacher implements progress.SubmissionRepository.
func (r *ProgressRepository) CountByStatusForTeacher(_ context.Context, teacherID shared.UserID) (map[progress.SubmissionStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[progress.SubmissionStatus]int)
	for _, sub := range r.s.submissions {
		if c, ok := r.s.courses[sub.CourseID]; ok && c.TeacherID == teacherID {
			counts[sub.Status]++
		}
	}
	return counts, nil
}

// CountByTeacher implements progress.CourseRepository.
func (r *ProgressRepository) CountByTeacher(_ context.Context, teacherID shared.UserID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.courses {
		if c.TeacherID == teacherID {
			n++
		}
	}
	return n, nil
}

// CountDistinctStudents implements progress.CourseRepository.
func (r *ProgressRepository) CountDistinctStudents(_ context.Context, teacherID shared.UserID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	students := make(map[shared.UserID]struct{})
	for _, e := range r.s.enrollments {
		if c, ok := r.s.courses[e.CourseID]; ok && c.TeacherID == teacherID {
			students[e.StudentID] = struct{}{}
		}
	}
	return len(students), nil
}
