package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
)

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

var _ achievement.Repository = (*AchievementRepository)(nil)

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// ListDefinitions returns the catalog in seeding order.
func (r *AchievementRepository) ListDefinitions(ctx context.Context) ([]achievement.Definition, error) {
	query := `
		SELECT type, title, description, icon, color, requirement_type, requirement_value
		FROM achievement_definitions
		ORDER BY position
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query definitions: %w", err)
	}
	defer rows.Close()

	var defs []achievement.Definition
	for rows.Next() {
		var (
			d  achievement.Definition
			rt string
		)
		if err := rows.Scan(&d.Type, &d.Title, &d.Description, &d.Icon, &d.Color, &rt, &d.RequirementValue); err != nil {
			return nil, fmt.Errorf("failed to scan definition: %w", err)
		}
		d.RequirementType = achievement.RequirementType(rt)
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// SeedDefinitions inserts missing definitions. Stored rows are not updated.
func (r *AchievementRepository) SeedDefinitions(ctx context.Context, defs []achievement.Definition) error {
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, d := range defs {
			_, err := tx.Exec(ctx, `
				INSERT INTO achievement_definitions (
					type, title, description, icon, color, requirement_type, requirement_value
				) VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (type) DO NOTHING
			`, d.Type, d.Title, d.Description, d.Icon, d.Color, string(d.RequirementType), d.RequirementValue)
			if err != nil {
				return fmt.Errorf("failed to seed definition %s: %w", d.Type, err)
			}
		}
		return nil
	})
}

// ListUnlocks returns the user's unlocks ordered by achievement type.
func (r *AchievementRepository) ListUnlocks(ctx context.Context, userID shared.UserID) ([]achievement.Unlock, error) {
	query := `
		SELECT achievement_type, unlocked_at
		FROM achievement_unlocks
		WHERE user_id = $1
		ORDER BY achievement_type
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocks: %w", err)
	}
	defer rows.Close()

	var result []achievement.Unlock
	for rows.Next() {
		u := achievement.Unlock{UserID: userID, Unlocked: true}
		if err := rows.Scan(&u.Type, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// Unlock inserts the unlock row unless it already exists.
func (r *AchievementRepository) Unlock(ctx context.Context, userID shared.UserID, achievementType string, at time.Time) (bool, error) {
	query := `
		INSERT INTO achievement_unlocks (user_id, achievement_type, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_type) DO NOTHING
	`

	tag, err := r.conn.Exec(ctx, query, userID.String(), achievementType, at)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return false, shared.ErrDefinitionNotFound
		}
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
