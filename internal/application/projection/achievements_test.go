package projection_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/application/command"
	"github.com/alem-hub/study-progress-core/internal/application/projection"
	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/messaging"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

type pipeline struct {
	store      *memory.Store
	bus        *messaging.InMemoryEventBus
	clock      *timeutil.FixedClock
	projection *projection.AchievementProjection
	logAct     *command.LogActivityHandler

	mu       sync.Mutex
	unlocked []string
}

func newPipeline(t *testing.T, defs []achievement.Definition) *pipeline {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Achievements().SeedDefinitions(context.Background(), defs))

	cfg := messaging.DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.Nop()
	bus := messaging.NewInMemoryEventBus(cfg)
	clock := timeutil.NewFixedClock(time.Date(2026, 6, 15, 18, 0, 0, 0, time.UTC))

	metrics := projection.NewMetricsLoader(store.Activity(), store.Progress(), store.Progress(), store.Exams(), clock)
	proj := projection.NewAchievementProjection(store.Achievements(), metrics, bus, clock, logger.Nop())
	require.NoError(t, proj.Register(bus))

	p := &pipeline{
		store:      store,
		bus:        bus,
		clock:      clock,
		projection: proj,
		logAct:     command.NewLogActivityHandler(store.Activity(), bus, clock, logger.Nop()),
	}

	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, func(_ context.Context, e shared.Event) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.unlocked = append(p.unlocked, e.(*shared.AchievementUnlockedEvent).AchievementType)
		return nil
	}))

	return p
}

func (p *pipeline) log(t *testing.T, date string, d activity.Delta) {
	t.Helper()
	_, err := p.logAct.Handle(context.Background(), command.LogActivityCommand{UserID: "stud-1", Date: date, Delta: d})
	require.NoError(t, err)
}

func (p *pipeline) unlocks(t *testing.T) map[string]achievement.Unlock {
	t.Helper()
	list, err := p.store.Achievements().ListUnlocks(context.Background(), "stud-1")
	require.NoError(t, err)
	out := make(map[string]achievement.Unlock, len(list))
	for _, u := range list {
		out[u.Type] = u
	}
	return out
}

func TestProjection_LessonsThresholdUnlocks(t *testing.T) {
	p := newPipeline(t, []achievement.Definition{
		{Type: "lessons_5", Title: "Five", RequirementType: achievement.RequirementLessons, RequirementValue: 5},
	})

	p.log(t, "2026-06-14", activity.Delta{LessonsCompleted: 3})
	assert.Empty(t, p.unlocks(t))

	p.log(t, "2026-06-15", activity.Delta{LessonsCompleted: 2})
	u, ok := p.unlocks(t)["lessons_5"]
	require.True(t, ok)
	assert.True(t, u.Unlocked)
	assert.Equal(t, p.clock.Now(), u.UnlockedAt)
	assert.Equal(t, []string{"lessons_5"}, p.unlocked)
}

func TestProjection_UnlockIsIdempotent(t *testing.T) {
	p := newPipeline(t, []achievement.Definition{
		{Type: "hours_1", Title: "Hour", RequirementType: achievement.RequirementHours, RequirementValue: 1},
	})

	p.log(t, "", activity.Delta{HoursSpent: 1})
	first := p.unlocks(t)["hours_1"].UnlockedAt

	p.clock.Advance(time.Hour)
	p.log(t, "", activity.Delta{HoursSpent: 3})

	unlocks := p.unlocks(t)
	assert.Len(t, unlocks, 1)
	assert.Equal(t, first, unlocks["hours_1"].UnlockedAt)
	assert.Equal(t, []string{"hours_1"}, p.unlocked, "the unlock event fires once")
}

func TestProjection_CoursesAndAssignments(t *testing.T) {
	p := newPipeline(t, []achievement.Definition{
		{Type: "course_complete", Title: "Graduate", RequirementType: achievement.RequirementCourses, RequirementValue: 1},
		{Type: "assignments_2", Title: "Worker", RequirementType: achievement.RequirementAssignments, RequirementValue: 2},
	})
	p.store.AddEnrollment(progress.Enrollment{StudentID: "stud-1", CourseID: "c1", Progress: 100})
	p.store.AddSubmission(progress.Submission{ID: "s1", StudentID: "stud-1", CourseID: "c1", Status: progress.SubmissionGraded})
	p.store.AddSubmission(progress.Submission{ID: "s2", StudentID: "stud-1", CourseID: "c1", Status: progress.SubmissionPending})

	p.log(t, "", activity.Delta{})

	unlocks := p.unlocks(t)
	assert.Contains(t, unlocks, "course_complete")
	assert.NotContains(t, unlocks, "assignments_2", "pending submissions do not count")
}

// Streak and perfect_exam achievements are display-only: the activity
// trigger never persists them, even when their progress reads 100.
func TestProjection_StreakAndPerfectExamNeverUnlocked(t *testing.T) {
	p := newPipeline(t, []achievement.Definition{
		{Type: "streak_2", Title: "Two days", RequirementType: achievement.RequirementStreak, RequirementValue: 2},
		{Type: "perfect_exam", Title: "Perfect", RequirementType: achievement.RequirementPerfectExam, RequirementValue: 1},
	})

	p.store.AddExam(exam.Exam{ID: "e1"})
	a, err := exam.NewAttempt("a1", "e1", "stud-1", p.clock.Now())
	require.NoError(t, err)
	require.NoError(t, p.store.Exams().CreateAttempt(context.Background(), a))
	require.NoError(t, a.Complete(&exam.Result{Score: 5, TotalPoints: 5}, p.clock.Now()))
	require.NoError(t, p.store.Exams().CompleteAttempt(context.Background(), a))

	p.log(t, "2026-06-14", activity.Delta{HoursSpent: 1})
	p.log(t, "2026-06-15", activity.Delta{HoursSpent: 1})

	assert.Empty(t, p.unlocks(t))

	metrics := projection.NewMetricsLoader(p.store.Activity(), p.store.Progress(), p.store.Progress(), p.store.Exams(), p.clock)
	m, err := metrics.Load(context.Background(), "stud-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Streak)
	assert.True(t, m.PerfectExam)
}

type failingAchievements struct {
	achievement.Repository
}

func (failingAchievements) ListDefinitions(context.Context) ([]achievement.Definition, error) {
	return nil, errors.New("catalog unavailable")
}

func TestProjection_ErrorsSurfaceThroughSyncBus(t *testing.T) {
	store := memory.NewStore()
	cfg := messaging.DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.Nop()
	bus := messaging.NewInMemoryEventBus(cfg)
	clock := timeutil.NewFixedClock(time.Now())

	metrics := projection.NewMetricsLoader(store.Activity(), store.Progress(), store.Progress(), store.Exams(), clock)
	proj := projection.NewAchievementProjection(failingAchievements{store.Achievements()}, metrics, bus, clock, logger.Nop())
	require.NoError(t, proj.Register(bus))

	err := bus.Publish(context.Background(), shared.NewActivityLoggedEvent("stud-1", clock.Now(), 1, 0, 0, 0, clock.Now()))
	assert.ErrorContains(t, err, "catalog unavailable")
}

func TestProjection_RejectsForeignEvents(t *testing.T) {
	p := newPipeline(t, nil)
	err := p.projection.HandleActivityLogged(context.Background(),
		shared.NewAttemptStartedEvent("a", "e", "s", time.Now()))
	assert.Error(t, err)
}
