package activity

import (
	"context"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// Repository defines the interface for ledger persistence.
// This interface is implemented by the infrastructure layer.
type Repository interface {
	// Upsert adds delta to the record keyed by (userID, date), creating it
	// when absent. The read-modify-write must be atomic in the store:
	// concurrent upserts on the same key never lose an increment.
	Upsert(ctx context.Context, userID shared.UserID, date time.Time, delta Delta) (*Record, error)

	// Get returns the record for one day or shared.ErrRecordNotFound.
	Get(ctx context.Context, userID shared.UserID, date time.Time) (*Record, error)

	// ListRange returns the records with from <= date <= to, newest first.
	ListRange(ctx context.Context, userID shared.UserID, from, to time.Time) ([]*Record, error)

	// Totals sums the user's records across all dates.
	Totals(ctx context.Context, userID shared.UserID) (Totals, error)

	// QualifyingDates returns dates with hours_spent > 0 or lessons_completed > 0,
	// newest first.
	QualifyingDates(ctx context.Context, userID shared.UserID) ([]time.Time, error)
}
