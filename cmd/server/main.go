// Package main is the entry point of the study progress API server.
//
// The server owns exam attempts, the daily activity ledger and achievement
// unlocks. Courses, enrollments and submissions are read from tables
// maintained by the course service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alem-hub/study-progress-core/config"
	"github.com/alem-hub/study-progress-core/internal/application/command"
	"github.com/alem-hub/study-progress-core/internal/application/projection"
	"github.com/alem-hub/study-progress-core/internal/application/query"
	"github.com/alem-hub/study-progress-core/internal/domain/achievement"
	"github.com/alem-hub/study-progress-core/internal/domain/activity"
	"github.com/alem-hub/study-progress-core/internal/domain/exam"
	"github.com/alem-hub/study-progress-core/internal/domain/progress"
	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/messaging"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/study-progress-core/internal/infrastructure/persistence/redis"
	httpapi "github.com/alem-hub/study-progress-core/internal/interface/http"
	"github.com/alem-hub/study-progress-core/internal/interface/http/handlers"
	"github.com/alem-hub/study-progress-core/pkg/circuitbreaker"
	"github.com/alem-hub/study-progress-core/pkg/logger"
	"github.com/alem-hub/study-progress-core/pkg/retry"
	"github.com/alem-hub/study-progress-core/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

// repositories is the persistence surface the application layer needs.
type repositories struct {
	exams        exam.Repository
	ledger       activity.Repository
	achievements achievement.Repository
	enrollments  progress.EnrollmentRepository
	submissions  progress.SubmissionRepository
	courses      progress.CourseRepository

	ping    handlers.HealthCheckFunc
	cleanup func()
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		Service:   cfg.App.Name,
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting study progress core",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.cleanup()

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.SetTimeout(cfg.HTTP.HealthTimeout)
	health.AddCheck("database", repos.ping)

	if !cfg.Redis.Disabled {
		cache, err := openCache(ctx, cfg)
		if err != nil {
			log.Warn("redis unavailable, catalog cache disabled", logger.Err(err))
		} else {
			defer cache.Close()
			guarded := redis.NewBreakerStore(cache, log)
			repos.achievements = redis.NewCatalogCache(repos.achievements, guarded, cfg.Redis.CatalogTTL, log)
			health.AddOptionalCheck("cache", func(ctx context.Context) error {
				if state := guarded.State(); state == circuitbreaker.StateOpen {
					return fmt.Errorf("cache circuit is %s", state)
				}
				return cache.Ping(ctx)
			})
			log.Info("catalog cache enabled", logger.Duration("ttl", cfg.Redis.CatalogTTL))
		}
	}

	if err := repos.achievements.SeedDefinitions(ctx, achievement.DefaultCatalog()); err != nil {
		return fmt.Errorf("failed to seed achievement catalog: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. EVENTS AND PROJECTIONS
	// ─────────────────────────────────────────────────────────────────────────
	clock := timeutil.SystemClock{}

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn("event bus close failed", logger.Err(err))
		}
		snap := bus.Metrics().Snapshot()
		log.Info("event bus stopped", logger.Any("metrics", snap))
	}()

	metrics := projection.NewMetricsLoader(repos.ledger, repos.enrollments, repos.submissions, repos.exams, clock)
	achievementsProjection := projection.NewAchievementProjection(repos.achievements, metrics, bus, clock, log)
	if err := achievementsProjection.Register(bus); err != nil {
		return fmt.Errorf("failed to register achievement projection: %w", err)
	}

	audit := log.With(logger.Component("audit"))
	if err := bus.SubscribeAll(func(_ context.Context, event shared.Event) error {
		audit.Info("domain event",
			logger.EventType(string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
		)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to register audit log: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	ids := command.UUIDGenerator{}

	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimit
	serverCfg.Version = cfg.App.Version

	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		StartAttempt:    command.NewStartAttemptHandler(repos.exams, bus, clock, ids, log),
		SubmitAnswers:   command.NewSubmitAnswersHandler(repos.exams, bus, clock, ids, log),
		LogActivity:     command.NewLogActivityHandler(repos.ledger, bus, clock, log),
		Attempts:        query.NewGetAttemptHandler(repos.exams),
		ListActivity:    query.NewListActivityHandler(repos.ledger, clock),
		GetAchievements: query.NewGetAchievementsHandler(repos.achievements, metrics),
		StudentStats:    query.NewGetStudentStatsHandler(repos.enrollments, repos.ledger),
		TeacherStats:    query.NewGetTeacherStatsHandler(repos.courses, repos.submissions),
		Auth: httpapi.NewAuthenticator(httpapi.AuthConfig{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
			Leeway: cfg.Auth.Leeway,
		}),
		HealthChecker: health,
		Logger:        log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}

	log.Info("study progress core stopped")
	return nil
}

// openRepositories connects to Postgres, or builds the in-memory store
// in development when no database is configured.
func openRepositories(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repositories, error) {
	if cfg.UseMemoryStore() {
		log.Warn("DATABASE_URL not set, using the in-memory store")
		store := memory.NewStore()
		return &repositories{
			exams:        store.Exams(),
			ledger:       store.Activity(),
			achievements: store.Achievements(),
			enrollments:  store.Progress(),
			submissions:  store.Progress(),
			courses:      store.Progress(),
			ping:         func(context.Context) error { return nil },
			cleanup:      func() {},
		}, nil
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	startup := retry.StartupConfig()
	startup.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("database not ready, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("delay", delay),
			logger.Err(err),
		)
	}

	conn, err := retry.DoWithData(ctx, startup, func(ctx context.Context) (*postgres.Connection, error) {
		// A malformed URL will not fix itself.
		if _, err := pgCfg.PoolConfig(); err != nil {
			return nil, retry.Permanent(err)
		}
		return postgres.NewConnection(ctx, pgCfg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	progressRepo := postgres.NewProgressRepository(conn)
	return &repositories{
		exams:        postgres.NewExamRepository(conn),
		ledger:       postgres.NewActivityRepository(conn),
		achievements: postgres.NewAchievementRepository(conn),
		enrollments:  progressRepo,
		submissions:  progressRepo,
		courses:      progressRepo,
		ping:         handlers.PingCheck(conn),
		cleanup: func() {
			log.Info("closing database connection")
			conn.Close()
		},
	}, nil
}

func openCache(ctx context.Context, cfg *config.Config) (*redis.Cache, error) {
	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	redisCfg.PoolSize = cfg.Redis.PoolSize
	redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
	redisCfg.DialTimeout = cfg.Redis.DialTimeout
	redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
	redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

	cache, err := redis.NewCache(ctx, redisCfg)
	if err != nil {
		return nil, errors.Join(redis.ErrCacheConnection, err)
	}
	return cache, nil
}
