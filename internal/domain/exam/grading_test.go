package exam

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ans-%d", n)
	}
}

func questionSet(qs ...*Question) map[string]*Question {
	m := make(map[string]*Question, len(qs))
	for _, q := range qs {
		m[q.ID] = q
	}
	return m
}

func TestGrade_SingleQuestion(t *testing.T) {
	q := &Question{ID: "q1", Type: QuestionMultipleChoice, Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Points: 10}

	res, err := Grade("a1", map[string]string{"q1": "4"}, questionSet(q), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, 10, res.TotalPoints)
	require.Len(t, res.Answers, 1)
	assert.True(t, res.Answers[0].IsCorrect)
	assert.Equal(t, "a1", res.Answers[0].AttemptID)

	res, err = Grade("a1", map[string]string{"q1": "3"}, questionSet(q), sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, 10, res.TotalPoints)
	assert.False(t, res.Answers[0].IsCorrect)
}

func TestGrade_TotalCoversAnsweredQuestionsOnly(t *testing.T) {
	questions := questionSet(
		&Question{ID: "q1", CorrectAnswer: "a", Points: 5},
		&Question{ID: "q2", CorrectAnswer: "b", Points: 7},
		&Question{ID: "q3", CorrectAnswer: "c", Points: 11},
	)

	res, err := Grade("a1", map[string]string{"q1": "a", "q3": "x"}, questions, sequentialIDs())
	require.NoError(t, err)

	assert.Equal(t, 16, res.TotalPoints, "q2 was not answered and must not count")
	assert.Equal(t, 5.0, res.Score)
	assert.Len(t, res.Answers, 2)
}

func TestGrade_ExactEquality(t *testing.T) {
	questions := questionSet(&Question{ID: "q1", Type: QuestionFreeText, CorrectAnswer: "Paris", Points: 3})

	cases := []struct {
		given   string
		correct bool
	}{
		{"Paris", true},
		{"paris", false},
		{"Paris ", false},
		{" Paris", false},
		{"PARIS", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.given), func(t *testing.T) {
			res, err := Grade("a1", map[string]string{"q1": tc.given}, questions, sequentialIDs())
			require.NoError(t, err)
			assert.Equal(t, tc.correct, res.Answers[0].IsCorrect)
			assert.Equal(t, 3, res.TotalPoints)
		})
	}
}

func TestGrade_UnknownQuestionFailsWholeSubmission(t *testing.T) {
	questions := questionSet(&Question{ID: "q1", CorrectAnswer: "a", Points: 5})

	res, err := Grade("a1", map[string]string{"q1": "a", "ghost": "b"}, questions, sequentialIDs())
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrQuestionNotFound)
	assert.True(t, shared.IsNotFound(err))
}

func TestGrade_AnswersOrderedByQuestionID(t *testing.T) {
	questions := questionSet(
		&Question{ID: "b", CorrectAnswer: "1", Points: 1},
		&Question{ID: "a", CorrectAnswer: "1", Points: 1},
		&Question{ID: "c", CorrectAnswer: "1", Points: 1},
	)

	res, err := Grade("a1", map[string]string{"c": "1", "a": "1", "b": "0"}, questions, sequentialIDs())
	require.NoError(t, err)
	require.Len(t, res.Answers, 3)
	assert.Equal(t, "a", res.Answers[0].QuestionID)
	assert.Equal(t, "b", res.Answers[1].QuestionID)
	assert.Equal(t, "c", res.Answers[2].QuestionID)
	assert.Equal(t, 2.0, res.Score)
}

func TestAttempt_Lifecycle(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	a, err := NewAttempt("att", "exam", "stud", start)
	require.NoError(t, err)
	assert.Equal(t, AttemptInProgress, a.Status())
	assert.Nil(t, a.Score)
	assert.False(t, a.IsPerfect())

	res := &Result{Score: 4, TotalPoints: 4}
	require.NoError(t, a.Complete(res, start.Add(time.Hour)))
	assert.Equal(t, AttemptCompleted, a.Status())
	assert.True(t, a.IsPerfect())

	err = a.Complete(&Result{Score: 0, TotalPoints: 4}, start.Add(2*time.Hour))
	assert.ErrorIs(t, err, shared.ErrAttemptCompleted)
	assert.Equal(t, 4.0, *a.Score, "a completed attempt keeps its first result")
}

func TestAttempt_ZeroTotalIsNotPerfect(t *testing.T) {
	a, err := NewAttempt("att", "exam", "stud", time.Now())
	require.NoError(t, err)
	require.NoError(t, a.Complete(&Result{}, time.Now()))
	assert.False(t, a.IsPerfect())
}

func TestNewAttempt_Validation(t *testing.T) {
	_, err := NewAttempt("", "exam", "stud", time.Now())
	assert.True(t, shared.IsValidation(err))

	_, err = NewAttempt("att", "", "stud", time.Now())
	assert.True(t, shared.IsValidation(err))

	_, err = NewAttempt("att", "exam", "", time.Now())
	assert.True(t, shared.IsValidation(err))
}

func TestGrade_TwoKeysForOneQuestion(t *testing.T) {
	q := &Question{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", CorrectAnswer: "a", Points: 5}
	questions := map[string]*Question{
		"3f2504e0-4f89-11d3-9a0c-0305e82c3301": q,
		"3F2504E0-4F89-11D3-9A0C-0305E82C3301": q,
	}

	res, err := Grade("a1", map[string]string{
		"3f2504e0-4f89-11d3-9a0c-0305e82c3301": "a",
		"3F2504E0-4F89-11D3-9A0C-0305E82C3301": "a",
	}, questions, sequentialIDs())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, shared.ErrDuplicateAnswer)
	assert.True(t, shared.IsValidation(err))
}

func TestGrade_KeepsSubmittedKeySpelling(t *testing.T) {
	q := &Question{ID: "3f2504e0-4f89-11d3-9a0c-0305e82c3301", CorrectAnswer: "4", Points: 10}
	upper := "3F2504E0-4F89-11D3-9A0C-0305E82C3301"

	res, err := Grade("a1", map[string]string{upper: "4"}, map[string]*Question{upper: q}, sequentialIDs())
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, upper, res.Answers[0].QuestionID)
}
