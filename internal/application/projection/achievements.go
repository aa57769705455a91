package projection

import (
	"context"
	"fmt"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT PROJECTION
// Recomputes unlock state after every ledger write. Only lessons, courses,
// hours and assignments achievements are unlocked here; streak and
// perfect_exam stay display-only.
// ══════════════════════════════════════════════════════════════════════════════

// AchievementProjection persists unlocks for users whose metrics crossed a threshold.
type AchievementProjection struct {
	achievements achievement.Repository
	metrics      *MetricsLoader
	publisher    shared.EventPublisher
	clock        timeutil.Clock
	log          *logger.Logger
}

// NewAchievementProjection creates a new AchievementProjection.
func NewAchievementProjection(
	achievements achievement.Repository,
	metrics *MetricsLoader,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *AchievementProjection {
	return &AchievementProjection{
		achievements: achievements,
		metrics:      metrics,
		publisher:    publisher,
		clock:        clock,
		log:          log.With(logger.Component("achievement_projection")),
	}
}

// Register subscribes the projection to the events that drive it.
func (p *AchievementProjection) Register(sub shared.EventSubscriber) error {
	return sub.Subscribe(shared.EventActivityLogged, p.HandleActivityLogged)
}

// HandleActivityLogged is the shared.EventHandler for activity.logged.
func (p *AchievementProjection) HandleActivityLogged(ctx context.Context, event shared.Event) error {
	e, ok := event.(*shared.ActivityLoggedEvent)
	if !ok {
		return fmt.Errorf("achievement_projection: unexpected event %T", event)
	}
	_, err := p.Recompute(ctx, shared.UserID(e.UserID))
	return err
}

// Recompute evaluates every definition against fresh metrics and unlocks
// the eligible ones. It returns the definitions unlocked by this call;
// already-unlocked achievements are left as they are.
func (p *AchievementProjection) Recompute(ctx context.Context, userID shared.UserID) ([]achievement.Definition, error) {
	defs, err := p.achievements.ListDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("achievement_projection: list definitions: %w", err)
	}

	m, err := p.metrics.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("achievement_projection: load metrics: %w", err)
	}

	var unlocked []achievement.Definition
	for _, def := range defs {
		if !achievement.Eligible(def, m) {
			continue
		}

		now := p.clock.Now()
		created, err := p.achievements.Unlock(ctx, userID, def.Type, now)
		if err != nil {
			return unlocked, fmt.Errorf("achievement_projection: unlock %s: %w", def.Type, err)
		}
		if !created {
			continue
		}

		unlocked = append(unlocked, def)
		p.log.Info("achievement unlocked",
			logger.UserID(userID.String()),
			logger.AchievementType(def.Type),
		)

		event := shared.NewAchievementUnlockedEvent(userID.String(), def.Type, def.Title, now)
		if err := p.publisher.Publish(ctx, event); err != nil {
			p.log.Warn("achievement unlocked event not delivered",
				logger.AchievementType(def.Type),
				logger.Err(err),
			)
		}
	}

	return unlocked, nil
}
