//go:build integration

package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// Run with: DATABASE_URL=postgres://... go test -tags integration ./internal/infrastructure/persistence/postgres/

func openTestConnection(t *testing.T) *Connection {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = url
	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	require.NoError(t, NewMigrator(conn).Migrate(ctx))
	return conn
}

type examFixture struct {
	examID    string
	questions []string
}

func seedExam(t *testing.T, conn *Connection) examFixture {
	t.Helper()
	ctx := context.Background()

	courseID := uuid.NewString()
	_, err := conn.Exec(ctx, `INSERT INTO courses (id, title, teacher_id) VALUES ($1, 'Go basics', $2)`, courseID, uuid.NewString())
	require.NoError(t, err)

	fx := examFixture{examID: uuid.NewString()}
	_, err = conn.Exec(ctx, `INSERT INTO exams (id, course_id, title, total_points) VALUES ($1, $2, 'Midterm', 3)`, fx.examID, courseID)
	require.NoError(t, err)

	for i, points := range []int{1, 2} {
		id := uuid.NewString()
		_, err = conn.Exec(ctx, `
			INSERT INTO exam_questions (id, exam_id, question, question_type, correct_answer, points, position)
			VALUES ($1, $2, 'q', 'free_text', 'go', $3, $4)
		`, id, fx.examID, points, i)
		require.NoError(t, err)
		fx.questions = append(fx.questions, id)
	}
	return fx
}

func TestIntegration_ActivityUpsertIsAdditive(t *testing.T) {
	conn := openTestConnection(t)
	repo := NewActivityRepository(conn)
	ctx := context.Background()

	user := shared.UserID(uuid.NewString())
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)

	_, err := repo.Upsert(ctx, user, day, activity.Delta{HoursSpent: 1.5, LessonsCompleted: 1})
	require.NoError(t, err)
	rec, err := repo.Upsert(ctx, user, day, activity.Delta{HoursSpent: 0.5, ExamsTaken: 1})
	require.NoError(t, err)

	assert.InDelta(t, 2.0, rec.HoursSpent, 1e-9)
	assert.Equal(t, 1, rec.LessonsCompleted)
	assert.Equal(t, 1, rec.ExamsTaken)

	got, err := repo.Get(ctx, user, day)
	require.NoError(t, err)
	assert.Equal(t, rec.HoursSpent, got.HoursSpent)

	_, err = repo.Get(ctx, user, day.AddDate(0, 0, 1))
	assert.True(t, shared.IsNotFound(err))
}

func TestIntegration_GetQuestionsAcceptsAnyUUIDSpelling(t *testing.T) {
	conn := openTestConnection(t)
	repo := NewExamRepository(conn)
	fx := seedExam(t, conn)

	upper := strings.ToUpper(fx.questions[0])
	braced := "{" + fx.questions[1] + "}"

	got, err := repo.GetQuestions(context.Background(), fx.examID, []string{upper, braced, "not-a-uuid"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, fx.questions[0], got[upper].ID)
	assert.Equal(t, fx.questions[1], got[braced].ID)
}

func TestIntegration_CompleteAttemptOnlyOnce(t *testing.T) {
	conn := openTestConnection(t)
	repo := NewExamRepository(conn)
	fx := seedExam(t, conn)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	attempt, err := exam.NewAttempt(uuid.NewString(), fx.examID, uuid.NewString(), now)
	require.NoError(t, err)
	require.NoError(t, repo.CreateAttempt(ctx, attempt))

	questions, err := repo.GetQuestions(ctx, fx.examID, fx.questions)
	require.NoError(t, err)
	result, err := exam.Grade(attempt.ID, map[string]string{
		fx.questions[0]: "go",
		fx.questions[1]: "rust",
	}, questions, uuid.NewString)
	require.NoError(t, err)
	require.NoError(t, attempt.Complete(result, now.Add(time.Minute)))

	require.NoError(t, repo.CompleteAttempt(ctx, attempt))
	assert.ErrorIs(t, repo.CompleteAttempt(ctx, attempt), shared.ErrAttemptCompleted)

	stored, err := repo.GetAttempt(ctx, attempt.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 1.0, *stored.Score)
	assert.Equal(t, 3, *stored.TotalPoints)
	assert.Len(t, stored.Answers, 2)

	perfect, err := repo.HasPerfectAttempt(ctx, attempt.StudentID)
	require.NoError(t, err)
	assert.False(t, perfect)
}

func TestIntegration_UnlockIsIdempotent(t *testing.T) {
	conn := openTestConnection(t)
	repo := NewAchievementRepository(conn)
	ctx := context.Background()

	catalog := achievement.DefaultCatalog()
	require.NoError(t, repo.SeedDefinitions(ctx, catalog))

	user := shared.UserID(uuid.NewString())
	at := time.Now().UTC()

	first, err := repo.Unlock(ctx, user, catalog[0].Type, at)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.Unlock(ctx, user, catalog[0].Type, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	unlocks, err := repo.ListUnlocks(ctx, user)
	require.NoError(t, err)
	assert.Len(t, unlocks, 1)
}
