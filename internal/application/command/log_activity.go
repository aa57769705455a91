package command

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG ACTIVITY COMMAND
// Two explicit steps:
//  1. add the delta to the (user, date) ledger row;
//  2. publish activity.logged, which drives the achievement projection.
// The ledger write is the command's outcome. A failing projection is logged
// and recovers on the next write, since it re-reads every aggregate.
// A zero delta skips the write but still publishes, so achievements driven
// by collaborator data (courses, assignments) can be re-evaluated.
// ══════════════════════════════════════════════════════════════════════════════

// LogActivityCommand contains a ledger increment.
type LogActivityCommand struct {
	UserID string

	// Date is YYYY-MM-DD; empty means today (UTC).
	Date string

	Delta activity.Delta
}

// Validate validates the command.
func (c LogActivityCommand) Validate() error {
	if !shared.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.Date != "" {
		if _, err := timeutil.ParseDate(c.Date); err != nil {
			return shared.ErrInvalidDate
		}
	}
	return c.Delta.Validate()
}

// LogActivityHandler handles the LogActivityCommand.
type LogActivityHandler struct {
	ledger    activity.Repository
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewLogActivityHandler creates a new LogActivityHandler.
func NewLogActivityHandler(
	ledger activity.Repository,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *LogActivityHandler {
	return &LogActivityHandler{
		ledger:    ledger,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("log_activity")),
	}
}

// Handle executes the log activity command and returns the updated ledger row.
func (h *LogActivityHandler) Handle(ctx context.Context, cmd LogActivityCommand) (*activity.Record, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	date := timeutil.Today(h.clock)
	if cmd.Date != "" {
		date, _ = timeutil.ParseDate(cmd.Date)
	}
	userID := shared.UserID(cmd.UserID)

	// Step 1: ledger write.
	var record *activity.Record
	var err error
	if cmd.Delta.IsZero() {
		record, err = h.current(ctx, userID, date)
	} else {
		record, err = h.ledger.Upsert(ctx, userID, date, cmd.Delta)
	}
	if err != nil {
		return nil, fmt.Errorf("log_activity: ledger: %w", err)
	}

	// Step 2: projection.
	event := shared.NewActivityLoggedEvent(
		cmd.UserID, date,
		cmd.Delta.HoursSpent, cmd.Delta.LessonsCompleted,
		cmd.Delta.AssignmentsCompleted, cmd.Delta.ExamsTaken,
		h.clock.Now(),
	)
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.log.Error("achievement projection failed",
			logger.UserID(cmd.UserID),
			logger.Date(date),
			logger.Err(err),
		)
	}

	h.log.Debug("activity logged",
		logger.UserID(cmd.UserID),
		logger.Date(date),
		logger.Float64("hours_spent", record.HoursSpent),
		logger.Int("lessons_completed", record.LessonsCompleted),
	)

	return record, nil
}

// current returns the stored row for the day, or an empty one when the
// user has not logged anything on it yet.
func (h *LogActivityHandler) current(ctx context.Context, userID shared.UserID, date time.Time) (*activity.Record, error) {
	record, err := h.ledger.Get(ctx, userID, date)
	if err == nil {
		return record, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	return activity.NewRecord(userID, date, h.clock.Now())
}
