package query

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD STATS QUERIES
// Stateless aggregations over enrollments, submissions and the ledger.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentStatsHandler computes the student dashboard.
type GetStudentStatsHandler struct {
	enrollments progress.EnrollmentRepository
	ledger      activity.Repository
}

// NewGetStudentStatsHandler creates a new GetStudentStatsHandler.
func NewGetStudentStatsHandler(enrollments progress.EnrollmentRepository, ledger activity.Repository) *GetStudentStatsHandler {
	return &GetStudentStatsHandler{enrollments: enrollments, ledger: ledger}
}

// Handle executes the query.
func (h *GetStudentStatsHandler) Handle(ctx context.Context, studentID string) (progress.StudentStats, error) {
	uid, err := shared.NewUserID(studentID)
	if err != nil {
		return progress.StudentStats{}, err
	}

	var (
		enrollments []progress.Enrollment
		totals      activity.Totals
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		enrollments, err = h.enrollments.ListByStudent(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		totals, err = h.ledger.Totals(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return progress.StudentStats{}, fmt.Errorf("get_student_stats: %w", err)
	}

	return progress.ComputeStudentStats(enrollments, totals.HoursSpent), nil
}

// GetTeacherStatsHandler computes the teacher dashboard over owned courses.
type GetTeacherStatsHandler struct {
	courses     progress.CourseRepository
	submissions progress.SubmissionRepository
}

// NewGetTeacherStatsHandler creates a new GetTeacherStatsHandler.
func NewGetTeacherStatsHandler(courses progress.CourseRepository, submissions progress.SubmissionRepository) *GetTeacherStatsHandler {
	return &GetTeacherStatsHandler{courses: courses, submissions: submissions}
}

// Handle executes the query.
func (h *GetTeacherStatsHandler) Handle(ctx context.Context, teacherID string) (progress.TeacherStats, error) {
	uid, err := shared.NewUserID(teacherID)
	if err != nil {
		return progress.TeacherStats{}, err
	}

	var (
		stats  progress.TeacherStats
		counts map[progress.SubmissionStatus]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats.TotalStudents, err = h.courses.CountDistinctStudents(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		stats.TotalCourses, err = h.courses.CountByTeacher(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = h.submissions.CountByStatusForTeacher(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return progress.TeacherStats{}, fmt.Errorf("get_teacher_stats: %w", err)
	}

	stats.PendingSubmissions = counts[progress.SubmissionPending]
	stats.GradedSubmissions = counts[progress.SubmissionGraded]
	return stats, nil
}
