package redis

import (
	"context"
	"errors"
	"time"

	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/pkg/circuitbreaker"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

// KeyCatalog holds the JSON-encoded achievement catalog.
const KeyCatalog = PrefixAchievement + "catalog"

// Store is the subset of Cache the catalog wrapper needs.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

var _ Store = (*Cache)(nil)

// CatalogCache wraps an achievement.Repository and serves ListDefinitions
// from Redis. Unlock reads and writes always go to the wrapped repository.
// Cache failures degrade to the wrapped repository and are only logged.
type CatalogCache struct {
	achievement.Repository

	cache Store
	ttl   time.Duration
	log   *logger.Logger
}

var _ achievement.Repository = (*CatalogCache)(nil)

// NewCatalogCache creates a read-through cache in front of repo.
func NewCatalogCache(repo achievement.Repository, cache Store, ttl time.Duration, log *logger.Logger) *CatalogCache {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogCache{
		Repository: repo,
		cache:      cache,
		ttl:        ttl,
		log:        log.With(logger.Component("catalog_cache")),
	}
}

// definitionDTO is the cached shape of a definition.
type definitionDTO struct {
	Type             string `json:"type"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Icon             string `json:"icon"`
	Color            string `json:"color"`
	RequirementType  string `json:"requirement_type"`
	RequirementValue int    `json:"requirement_value"`
}

// ListDefinitions returns the cached catalog, loading and caching it on a miss.
func (c *CatalogCache) ListDefinitions(ctx context.Context) ([]achievement.Definition, error) {
	var cached []definitionDTO
	err := c.cache.Get(ctx, KeyCatalog, &cached)
	switch {
	case err == nil:
		return fromDTOs(cached), nil
	case circuitbreaker.IsRejected(err):
		c.log.Debug("catalog cache bypassed", logger.Err(err))
	case !errors.Is(err, ErrCacheMiss):
		c.log.Warn("catalog cache read failed", logger.Err(err))
	}

	defs, err := c.Repository.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, KeyCatalog, toDTOs(defs), c.ttl); err != nil && !circuitbreaker.IsRejected(err) {
		c.log.Warn("catalog cache write failed", logger.Err(err))
	}
	return defs, nil
}

// SeedDefinitions seeds the wrapped repository and drops the cached catalog.
func (c *CatalogCache) SeedDefinitions(ctx context.Context, defs []achievement.Definition) error {
	if err := c.Repository.SeedDefinitions(ctx, defs); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, KeyCatalog); err != nil {
		c.log.Warn("catalog cache invalidation failed", logger.Err(err))
	}
	return nil
}

func toDTOs(defs []achievement.Definition) []definitionDTO {
	out := make([]definitionDTO, len(defs))
	for i, d := range defs {
		out[i] = definitionDTO{
			Type:             d.Type,
			Title:            d.Title,
			Description:      d.Description,
			Icon:             d.Icon,
			Color:            d.Color,
			RequirementType:  string(d.RequirementType),
			RequirementValue: d.RequirementValue,
		}
	}
	return out
}

func fromDTOs(dtos []definitionDTO) []achievement.Definition {
	out := make([]achievement.Definition, len(dtos))
	for i, d := range dtos {
		out[i] = achievement.Definition{
			Type:             d.Type,
			Title:            d.Title,
			Description:      d.Description,
			Icon:             d.Icon,
			Color:            d.Color,
			RequirementType:  achievement.RequirementType(d.RequirementType),
			RequirementValue: d.RequirementValue,
		}
	}
	return out
}
