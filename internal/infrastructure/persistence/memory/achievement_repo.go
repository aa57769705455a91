package memory

import (
	"context"
	"sort"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// AchievementRepository implements achievement.Repository.
type AchievementRepository struct {
	s *Store
}

var _ achievement.Repository = (*AchievementRepository)(nil)

// ListDefinitions implements achievement.Repository. Definitions keep their
// seeding order.
func (r *AchievementRepository) ListDefinitions(_ context.Context) ([]achievement.Definition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]achievement.Definition(nil), r.s.definitions...), nil
}

// SeedDefinitions implements achievement.Repository.
func (r *AchievementRepository) SeedDefinitions(_ context.Context, defs []achievement.Definition) error {
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, def := range defs {
		if _, ok := achievement.Find(r.s.definitions, def.Type); ok {
			continue
		}
		r.s.definitions = append(r.s.definitions, def)
	}
	return nil
}

// ListUnlocks implements achievement.Repository.
func (r *AchievementRepository) ListUnlocks(_ context.Context, userID shared.UserID) ([]achievement.Unlock, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []achievement.Unlock
	for key, u := range r.s.unlocks {
		if key.userID == userID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

// Unlock implements achievement.Repository.
func (r *AchievementRepository) Unlock(_ context.Context, userID shared.UserID, achievementType string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := achievement.Find(r.s.definitions, achievementType); !ok {
		return false, shared.ErrDefinitionNotFound
	}

	key := unlockKey{userID: userID, typ: achievementType}
	if _, ok := r.s.unlocks[key]; ok {
		return false, nil
	}
	r.s.unlocks[key] = achievement.Unlock{
		UserID:     userID,
		Type:       achievementType,
		Unlocked:   true,
		UnlockedAt: at,
	}
	return true, nil
}
