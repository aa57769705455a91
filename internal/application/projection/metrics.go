// Package projection contains read-side projections driven by domain events.
package projection

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// MetricsLoader computes a user's achievement metrics fresh from the
// underlying rows. Nothing is cached between calls.
type MetricsLoader struct {
	ledger      activity.Repository
	enrollments progress.EnrollmentRepository
	submissions progress.SubmissionRepository
	exams       exam.Repository
	clock       timeutil.Clock
}

// NewMetricsLoader creates a new MetricsLoader.
func NewMetricsLoader(
	ledger activity.Repository,
	enrollments progress.EnrollmentRepository,
	submissions progress.SubmissionRepository,
	exams exam.Repository,
	clock timeutil.Clock,
) *MetricsLoader {
	return &MetricsLoader{
		ledger:      ledger,
		enrollments: enrollments,
		submissions: submissions,
		exams:       exams,
		clock:       clock,
	}
}

// Load reads every counter concurrently. The first failing read cancels
// the others and its error is returned.
func (l *MetricsLoader) Load(ctx context.Context, userID shared.UserID) (achievement.Metrics, error) {
	var (
		m      achievement.Metrics
		totals activity.Totals
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		totals, err = l.ledger.Totals(gctx, userID)
		if err != nil {
			return fmt.Errorf("ledger totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		dates, err := l.ledger.QualifyingDates(gctx, userID)
		if err != nil {
			return fmt.Errorf("qualifying dates: %w", err)
		}
		m.Streak = achievement.Streak(dates, l.clock.Now())
		return nil
	})

	g.Go(func() error {
		n, err := l.enrollments.CountCompleted(gctx, userID)
		if err != nil {
			return fmt.Errorf("completed courses: %w", err)
		}
		m.CoursesCompleted = n
		return nil
	})

	g.Go(func() error {
		n, err := l.submissions.CountGraded(gctx, userID)
		if err != nil {
			return fmt.Errorf("graded submissions: %w", err)
		}
		m.AssignmentsCompleted = n
		return nil
	})

	g.Go(func() error {
		ok, err := l.exams.HasPerfectAttempt(gctx, userID.String())
		if err != nil {
			return fmt.Errorf("perfect exam: %w", err)
		}
		m.PerfectExam = ok
		return nil
	})

	if err := g.Wait(); err != nil {
		return achievement.Metrics{}, err
	}

	m.LessonsCompleted = totals.LessonsCompleted
	m.TotalHours = totals.HoursSpent
	return m, nil
}
