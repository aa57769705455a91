package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// recordingPublisher captures published events and can be told to fail.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) GenerateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	clock     *timeutil.FixedClock
	start     *StartAttemptHandler
	submit    *SubmitAnswersHandler
	logAct    *LogActivityHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddExam(exam.Exam{ID: "exam-1", CourseID: "course-1", Title: "Arithmetic", TotalPoints: 30})
	store.AddQuestion(exam.Question{ID: "q1", ExamID: "exam-1", Text: "2+2", Type: exam.QuestionMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4", Points: 10})
	store.AddQuestion(exam.Question{ID: "q2", ExamID: "exam-1", Text: "1+1 is 2", Type: exam.QuestionTrueFalse, Options: []string{"true", "false"}, CorrectAnswer: "true", Points: 5})
	store.AddQuestion(exam.Question{ID: "q3", ExamID: "exam-1", Text: "capital of France", Type: exam.QuestionFreeText, CorrectAnswer: "Paris", Points: 15})
	store.AddExam(exam.Exam{ID: "exam-2", Title: "Other"})
	store.AddQuestion(exam.Question{ID: "foreign", ExamID: "exam-2", CorrectAnswer: "x", Points: 1})

	pub := &recordingPublisher{}
	clock := timeutil.NewFixedClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	ids := &seqIDs{}
	log := logger.Nop()

	return &fixture{
		store:     store,
		publisher: pub,
		clock:     clock,
		start:     NewStartAttemptHandler(store.Exams(), pub, clock, ids, log),
		submit:    NewSubmitAnswersHandler(store.Exams(), pub, clock, ids, log),
		logAct:    NewLogActivityHandler(store.Activity(), pub, clock, log),
	}
}

func (f *fixture) startAttempt(t *testing.T, student string) *exam.Attempt {
	t.Helper()
	a, err := f.start.Handle(context.Background(), StartAttemptCommand{ExamID: "exam-1", StudentID: student})
	require.NoError(t, err)
	return a
}

func TestStartAttempt(t *testing.T) {
	f := newFixture(t)

	a := f.startAttempt(t, "stud-1")
	assert.Equal(t, "exam-1", a.ExamID)
	assert.Equal(t, "stud-1", a.StudentID)
	assert.Equal(t, f.clock.Now(), a.StartedAt)
	assert.Nil(t, a.Score)
	assert.Nil(t, a.TotalPoints)
	assert.Nil(t, a.CompletedAt)
	assert.Equal(t, []shared.EventType{shared.EventAttemptStarted}, f.publisher.types())

	// Several open attempts for the same exam are allowed.
	b := f.startAttempt(t, "stud-1")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStartAttempt_UnknownExam(t *testing.T) {
	f := newFixture(t)

	_, err := f.start.Handle(context.Background(), StartAttemptCommand{ExamID: "missing", StudentID: "stud-1"})
	assert.True(t, shared.IsNotFound(err))

	_, err = f.start.Handle(context.Background(), StartAttemptCommand{ExamID: "", StudentID: "stud-1"})
	assert.True(t, shared.IsValidation(err))
}

func TestSubmitAnswers_SingleCorrectQuestion(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	f.clock.Advance(20 * time.Minute)
	done, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{
		AttemptID: a.ID, StudentID: "stud-1", Answers: map[string]string{"q1": "4"},
	})
	require.NoError(t, err)

	require.NotNil(t, done.Score)
	assert.Equal(t, 10.0, *done.Score)
	assert.Equal(t, 10, *done.TotalPoints)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, f.clock.Now(), *done.CompletedAt)
	assert.Contains(t, f.publisher.types(), shared.EventAttemptCompleted)

	stored, err := f.store.Exams().GetAttempt(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, stored.Answers, 1)
	assert.True(t, stored.Answers[0].IsCorrect)
}

func TestSubmitAnswers_WrongAnswerAndPartialTotal(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	done, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{
		AttemptID: a.ID, StudentID: "stud-1", Answers: map[string]string{"q1": "3", "q3": "Paris"},
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, *done.Score)
	assert.Equal(t, 25, *done.TotalPoints, "q2 was not answered")
}

func TestSubmitAnswers_SecondSubmissionConflicts(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")
	cmd := SubmitAnswersCommand{AttemptID: a.ID, StudentID: "stud-1", Answers: map[string]string{"q1": "4"}}

	_, err := f.submit.Handle(context.Background(), cmd)
	require.NoError(t, err)

	cmd.Answers = map[string]string{"q1": "3"}
	_, err = f.submit.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrAttemptCompleted)
	assert.True(t, shared.IsConflict(err))

	stored, _ := f.store.Exams().GetAttempt(context.Background(), a.ID)
	assert.Equal(t, 10.0, *stored.Score, "the first result is kept")
}

func TestSubmitAnswers_ConcurrentSubmissionsOneWins(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{
				AttemptID: a.ID, StudentID: "stud-1", Answers: map[string]string{"q1": "4"},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, shared.ErrAttemptCompleted):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, conflicts)
}

func TestSubmitAnswers_OtherStudentsAttempt(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	_, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{
		AttemptID: a.ID, StudentID: "stud-2", Answers: map[string]string{"q1": "4"},
	})
	assert.True(t, shared.IsForbidden(err))
}

func TestSubmitAnswers_UnknownQuestionFailsWhole(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	for _, qid := range []string{"nope", "foreign"} {
		_, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{
			AttemptID: a.ID, StudentID: "stud-1", Answers: map[string]string{"q1": "4", qid: "x"},
		})
		assert.True(t, shared.IsNotFound(err), qid)
	}

	stored, err := f.store.Exams().GetAttempt(context.Background(), a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted())
	assert.Empty(t, stored.Answers)
}

func TestSubmitAnswers_Validation(t *testing.T) {
	f := newFixture(t)
	a := f.startAttempt(t, "stud-1")

	_, err := f.submit.Handle(context.Background(), SubmitAnswersCommand{AttemptID: a.ID, StudentID: "stud-1"})
	assert.ErrorIs(t, err, shared.ErrNoAnswers)
	assert.True(t, shared.IsValidation(err))

	_, err = f.submit.Handle(context.Background(), SubmitAnswersCommand{
		AttemptID: "missing", StudentID: "stud-1", Answers: map[string]string{"q1": "4"},
	})
	assert.True(t, shared.IsNotFound(err))
}

func TestLogActivity_DefaultsToToday(t *testing.T) {
	f := newFixture(t)

	rec, err := f.logAct.Handle(context.Background(), LogActivityCommand{
		UserID: "stud-1", Delta: activity.Delta{HoursSpent: 1.5},
	})
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2026, 6, 15), rec.Date)

	rec, err = f.logAct.Handle(context.Background(), LogActivityCommand{
		UserID: "stud-1", Date: "2026-06-15", Delta: activity.Delta{HoursSpent: 0.5, LessonsCompleted: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, rec.HoursSpent)
	assert.Equal(t, 1, rec.LessonsCompleted)

	assert.Equal(t, []shared.EventType{shared.EventActivityLogged, shared.EventActivityLogged}, f.publisher.types())
}

func TestLogActivity_ZeroDeltaSkipsWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.logAct.Handle(ctx, LogActivityCommand{UserID: "stud-1"})
	require.NoError(t, err)
	assert.Equal(t, timeutil.Date(2026, 6, 15), rec.Date)
	assert.Zero(t, rec.HoursSpent)

	_, err = f.store.Activity().Get(ctx, "stud-1", timeutil.Date(2026, 6, 15))
	assert.ErrorIs(t, err, shared.ErrRecordNotFound, "no empty row is written")

	_, err = f.logAct.Handle(ctx, LogActivityCommand{UserID: "stud-1", Delta: activity.Delta{LessonsCompleted: 3}})
	require.NoError(t, err)

	rec, err = f.logAct.Handle(ctx, LogActivityCommand{UserID: "stud-1", Date: "2026-06-15"})
	require.NoError(t, err)
	assert.Equal(t, 3, rec.LessonsCompleted, "the stored row is returned unchanged")

	assert.Len(t, f.publisher.types(), 3, "every log triggers evaluation, even an empty one")
}

func TestLogActivity_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.logAct.Handle(ctx, LogActivityCommand{UserID: "stud-1", Delta: activity.Delta{LessonsCompleted: -1}})
	assert.ErrorIs(t, err, shared.ErrNegativeDelta)

	_, err = f.logAct.Handle(ctx, LogActivityCommand{UserID: "stud-1", Date: "15/06/2026"})
	assert.ErrorIs(t, err, shared.ErrInvalidDate)

	_, err = f.logAct.Handle(ctx, LogActivityCommand{UserID: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)

	assert.Empty(t, f.publisher.types(), "nothing is published for rejected commands")
}

func TestLogActivity_ProjectionFailureKeepsLedgerWrite(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("projection down")

	rec, err := f.logAct.Handle(context.Background(), LogActivityCommand{
		UserID: "stud-1", Delta: activity.Delta{LessonsCompleted: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.LessonsCompleted)
}
