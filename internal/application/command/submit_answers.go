package command

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT ANSWERS COMMAND
// Grades a submission and closes the attempt. Grading happens in memory;
// the answers and the completed attempt are then written in one atomic
// repository call that fails if the attempt was completed meanwhile.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitAnswersCommand contains a student's answers, keyed by question id.
type SubmitAnswersCommand struct {
	AttemptID string
	StudentID string
	Answers   map[string]string
}

// Validate validates the command.
func (c SubmitAnswersCommand) Validate() error {
	if c.AttemptID == "" {
		return shared.ErrInvalidAttemptID
	}
	if !shared.UserID(c.StudentID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if len(c.Answers) == 0 {
		return shared.ErrNoAnswers
	}
	for qid := range c.Answers {
		if qid == "" {
			return shared.ErrInvalidQuestionID
		}
	}
	return nil
}

// SubmitAnswersHandler handles the SubmitAnswersCommand.
type SubmitAnswersHandler struct {
	exams     exam.Repository
	publisher shared.EventPublisher
	clock     timeutil.Clock
	ids       IDGenerator
	log       *logger.Logger
}

// NewSubmitAnswersHandler creates a new SubmitAnswersHandler.
func NewSubmitAnswersHandler(
	exams exam.Repository,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	ids IDGenerator,
	log *logger.Logger,
) *SubmitAnswersHandler {
	return &SubmitAnswersHandler{
		exams:     exams,
		publisher: publisher,
		clock:     clock,
		ids:       ids,
		log:       log.With(logger.Component("submit_answers")),
	}
}

// Handle executes the submit answers command and returns the completed attempt.
func (h *SubmitAnswersHandler) Handle(ctx context.Context, cmd SubmitAnswersCommand) (*exam.Attempt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	attempt, err := h.exams.GetAttempt(ctx, cmd.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("submit_answers: get attempt: %w", err)
	}
	if !attempt.BelongsTo(cmd.StudentID) {
		return nil, shared.ErrAttemptNotOwned
	}
	if attempt.IsCompleted() {
		return nil, shared.ErrAttemptCompleted
	}

	questionIDs := make([]string, 0, len(cmd.Answers))
	for qid := range cmd.Answers {
		questionIDs = append(questionIDs, qid)
	}

	questions, err := h.exams.GetQuestions(ctx, attempt.ExamID, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("submit_answers: get questions: %w", err)
	}

	result, err := exam.Grade(attempt.ID, cmd.Answers, questions, h.ids.GenerateID)
	if err != nil {
		return nil, err
	}

	if err := attempt.Complete(result, h.clock.Now()); err != nil {
		return nil, err
	}

	if err := h.exams.CompleteAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("submit_answers: save attempt: %w", err)
	}

	event := shared.NewAttemptCompletedEvent(
		attempt.ID, attempt.ExamID, attempt.StudentID,
		result.Score, result.TotalPoints, *attempt.CompletedAt,
	)
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.Warn("attempt completed event not delivered",
			logger.AttemptID(attempt.ID),
			logger.Err(err),
		)
	}

	h.log.Info("attempt submitted",
		logger.AttemptID(attempt.ID),
		logger.UserID(attempt.StudentID),
		logger.Score(result.Score, result.TotalPoints),
	)

	return attempt, nil
}
