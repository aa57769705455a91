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
// START ATTEMPT COMMAND
// Opens a new in-progress attempt. A student may hold any number of open
// attempts for the same exam.
// ══════════════════════════════════════════════════════════════════════════════

// StartAttemptCommand contains the data to open an attempt.
type StartAttemptCommand struct {
	ExamID    string
	StudentID string
}

// Validate validates the command.
func (c StartAttemptCommand) Validate() error {
	if c.ExamID == "" {
		return shared.ErrInvalidExamID
	}
	if !shared.UserID(c.StudentID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// StartAttemptHandler handles the StartAttemptCommand.
type StartAttemptHandler struct {
	exams     exam.Repository
	publisher shared.EventPublisher
	clock     timeutil.Clock
	ids       IDGenerator
	log       *logger.Logger
}

// NewStartAttemptHandler creates a new StartAttemptHandler.
func NewStartAttemptHandler(
	exams exam.Repository,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	ids IDGenerator,
	log *logger.Logger,
) *StartAttemptHandler {
	return &StartAttemptHandler{
		exams:     exams,
		publisher: publisher,
		clock:     clock,
		ids:       ids,
		log:       log.With(logger.Component("start_attempt")),
	}
}

// Handle executes the start attempt command.
func (h *StartAttemptHandler) Handle(ctx context.Context, cmd StartAttemptCommand) (*exam.Attempt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if _, err := h.exams.GetExam(ctx, cmd.ExamID); err != nil {
		return nil, fmt.Errorf("start_attempt: get exam: %w", err)
	}

	attempt, err := exam.NewAttempt(h.ids.GenerateID(), cmd.ExamID, cmd.StudentID, h.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := h.exams.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("start_attempt: save attempt: %w", err)
	}

	event := shared.NewAttemptStartedEvent(attempt.ID, attempt.ExamID, attempt.StudentID, attempt.StartedAt)
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.Warn("attempt started event not delivered",
			logger.AttemptID(attempt.ID),
			logger.Err(err),
		)
	}

	h.log.Info("attempt started",
		logger.AttemptID(attempt.ID),
		logger.ExamID(attempt.ExamID),
		logger.UserID(attempt.StudentID),
	)

	return attempt, nil
}
