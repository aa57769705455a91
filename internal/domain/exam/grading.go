package exam

import (
	"sort"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// Result is the outcome of grading one submission.
type Result struct {
	Score       float64
	TotalPoints int
	Answers     []Answer
}

// Grade scores a submission against the questions it references.
//
// Only submitted entries count: TotalPoints is the sum of points over the
// answered questions, not the exam's declared total. An answer is correct
// only when it is byte-for-byte equal to the question's correct answer.
// A submitted question id missing from questions fails the whole grading,
// as do two keys that resolve to the same question. Answers are returned
// ordered by question id.
func Grade(attemptID string, submitted map[string]string, questions map[string]*Question, newID func() string) (*Result, error) {
	ids := make([]string, 0, len(submitted))
	for id := range submitted {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &Result{Answers: make([]Answer, 0, len(ids))}
	graded := make(map[string]bool, len(ids))
	for _, qid := range ids {
		q, ok := questions[qid]
		if !ok || q == nil {
			return nil, shared.WrapError("exam", "Grade", shared.ErrQuestionNotFound,
				"question not found", missingQuestion(qid))
		}
		if graded[q.ID] {
			return nil, shared.ErrDuplicateAnswer
		}
		graded[q.ID] = true

		given := submitted[qid]
		correct := given == q.CorrectAnswer

		result.TotalPoints += q.Points
		if correct {
			result.Score += float64(q.Points)
		}

		result.Answers = append(result.Answers, Answer{
			ID:         newID(),
			AttemptID:  attemptID,
			QuestionID: qid,
			Answer:     given,
			IsCorrect:  correct,
		})
	}

	return result, nil
}

type missingQuestion string

func (m missingQuestion) Error() string {
	return "question " + string(m) + " does not exist in this exam"
}
