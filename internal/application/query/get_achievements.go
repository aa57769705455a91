// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/application/projection"
	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS QUERY
// Every definition with the caller's unlock state and live progress.
// Progress is computed on read for all requirement types, including the
// display-only streak and perfect_exam.
// ══════════════════════════════════════════════════════════════════════════════

// GetAchievementsQuery identifies the user.
type GetAchievementsQuery struct {
	UserID string
}

// GetAchievementsHandler handles GetAchievementsQuery.
type GetAchievementsHandler struct {
	achievements achievement.Repository
	metrics      *projection.MetricsLoader
}

// NewGetAchievementsHandler creates a new GetAchievementsHandler.
func NewGetAchievementsHandler(achievements achievement.Repository, metrics *projection.MetricsLoader) *GetAchievementsHandler {
	return &GetAchievementsHandler{achievements: achievements, metrics: metrics}
}

// Handle executes the query.
func (h *GetAchievementsHandler) Handle(ctx context.Context, q GetAchievementsQuery) ([]achievement.View, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	defs, err := h.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_achievements: list definitions: %w", err)
	}

	unlocks, err := h.achievements.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_achievements: list unlocks: %w", err)
	}

	m, err := h.metrics.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get_achievements: load metrics: %w", err)
	}

	return achievement.BuildViews(defs, unlocks, m), nil
}
