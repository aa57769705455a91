package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// DefaultActivityWindow is the range returned when from is omitted.
const DefaultActivityWindow = 30

// ListActivityQuery selects ledger rows in an inclusive date range.
// Empty To means today; empty From means DefaultActivityWindow days ending at To.
type ListActivityQuery struct {
	UserID string
	From   string
	To     string
}

// ListActivityHandler handles ListActivityQuery.
type ListActivityHandler struct {
	ledger activity.Repository
	clock  timeutil.Clock
}

// NewListActivityHandler creates a new ListActivityHandler.
func NewListActivityHandler(ledger activity.Repository, clock timeutil.Clock) *ListActivityHandler {
	return &ListActivityHandler{ledger: ledger, clock: clock}
}

// Handle executes the query.
func (h *ListActivityHandler) Handle(ctx context.Context, q ListActivityQuery) ([]*activity.Record, error) {
	uid, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	to := timeutil.Today(h.clock)
	if q.To != "" {
		if to, err = timeutil.ParseDate(q.To); err != nil {
			return nil, shared.ErrInvalidDate
		}
	}

	from := to.AddDate(0, 0, -(DefaultActivityWindow - 1))
	if q.From != "" {
		if from, err = timeutil.ParseDate(q.From); err != nil {
			return nil, shared.ErrInvalidDate
		}
	}

	if from.After(to) {
		return nil, shared.ErrInvalidRange
	}

	records, err := h.ledger.ListRange(ctx, uid, from, to)
	if err != nil {
		return nil, fmt.Errorf("list_activity: %w", err)
	}
	return records, nil
}

