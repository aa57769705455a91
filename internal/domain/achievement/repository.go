package achievement

import (
	"context"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// Repository defines the interface for achievement persistence.
type Repository interface {
	// ListDefinitions returns every definition in a stable order.
	ListDefinitions(ctx context.Context) ([]Definition, error)

	// SeedDefinitions inserts definitions that are not stored yet.
	// Existing definitions are left untouched.
	SeedDefinitions(ctx context.Context, defs []Definition) error

	// ListUnlocks returns the user's unlocks.
	ListUnlocks(ctx context.Context, userID shared.UserID) ([]Unlock, error)

	// Unlock records that userID unlocked achievementType at the given time.
	// It is a no-op returning false when the unlock already exists.
	Unlock(ctx context.Context, userID shared.UserID, achievementType string, at time.Time) (bool, error)
}
