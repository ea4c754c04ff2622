package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/code-arena-club/arena-backend/app/httpserver"
	"github.com/code-arena-club/arena-backend/app/modules/broadcast"
	contestservice "github.com/code-arena-club/arena-backend/app/modules/contest/application"
	contestevents "github.com/code-arena-club/arena-backend/app/modules/contest/events"
	contestcache "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/cache"
	contestqueue "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/queue"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	leaderboardcache "github.com/code-arena-club/arena-backend/app/modules/leaderboard/cache"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	leaderboardrouter "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/router"
	"github.com/code-arena-club/arena-backend/config"
	"github.com/code-arena-club/arena-backend/db/bundb"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
	"github.com/code-arena-club/arena-backend/internal/metrics"
	"github.com/code-arena-club/arena-backend/pkg/jwt"
)

// App owns every long-lived component of the contest platform process.
type App struct {
	Cfg    *config.Config
	Logger *slog.Logger

	db       *bundb.DBService
	hotCache *contestcache.RedisCache
	eventBus eventbus.EventBus
	registry *prometheus.Registry

	ContestService     *contestservice.ContestService
	LeaderboardService *leaderboardservice.LeaderboardService
	Queue              *contestqueue.Service
	Hub                *broadcast.Hub
	BroadcastRouter    *broadcast.Router
	LeaderboardRouter  *leaderboardrouter.LeaderboardRouter
	HTTPServer         *httpserver.Server
}

// NewApp wires the application: storage, caches, queue, bus, hub, and the
// HTTP surface. Construction order matters only for the queue/service
// cycle, which is resolved with late binding on both sides.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	hotCache, err := contestcache.NewRedisCache(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize contest hot cache: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	if err := bus.CreateStream(ctx, contestevents.ContestStreamName,
		contestevents.ContestCreatedV1,
		contestevents.ContestPhaseChangedV1,
	); err != nil {
		return nil, fmt.Errorf("failed to create contest stream: %w", err)
	}
	if err := bus.CreateStream(ctx, leaderboardevents.LeaderboardStreamName,
		leaderboardevents.ScoreReceivedV1,
		leaderboardevents.LeaderboardRowUpdatedV1,
		leaderboardevents.LeaderboardStatusChangedV1,
		leaderboardevents.LeaderboardSettledV1,
	); err != nil {
		return nil, fmt.Errorf("failed to create leaderboard stream: %w", err)
	}

	var registry *prometheus.Registry
	operationMetrics := metrics.NewNoop()
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		operationMetrics = metrics.NewOperationMetrics(registry)
	}
	tracer := otel.Tracer("arena-backend")

	liveCache := leaderboardcache.New()
	leaderboardSvc := leaderboardservice.NewLeaderboardService(
		liveCache,
		dbService.LeaderboardDB,
		dbService.ContestDB,
		bus,
		logger,
		operationMetrics,
		tracer,
	)

	contestSvc := contestservice.NewContestService(
		dbService.ContestDB,
		hotCache,
		leaderboardSvc,
		bus,
		logger,
		operationMetrics,
		tracer,
	)

	queue, err := contestqueue.NewService(ctx, dbService.GetDB(), logger, cfg.Postgres.DSN, operationMetrics, dbService.ContestDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize phase queue: %w", err)
	}
	queue.SetTransitioner(contestSvc)
	contestSvc.SetScheduler(queue)

	hub := broadcast.NewHub(leaderboardSvc, logger)

	watermillRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}
	broadcastRouter := broadcast.NewRouter(logger, watermillRouter, bus, hub, registry)
	if err := broadcastRouter.Configure(ctx); err != nil {
		return nil, fmt.Errorf("failed to configure broadcast router: %w", err)
	}

	ingestRouter, err := message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest router: %w", err)
	}
	leaderboardRouter := leaderboardrouter.NewLeaderboardRouter(logger, ingestRouter, bus, leaderboardSvc, registry)
	if err := leaderboardRouter.Configure(ctx); err != nil {
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL)

	httpServer := httpserver.NewServer(
		cfg.HTTP.Addr,
		logger,
		contestSvc,
		leaderboardSvc,
		hub,
		jwtService,
		registry,
	)

	httpServer.SetHealthChecks(
		httpserver.HealthCheck{Name: "postgres", Check: dbService.GetDB().PingContext},
		httpserver.HealthCheck{Name: "redis", Check: hotCache.Ping},
		httpserver.HealthCheck{Name: "queue", Check: queue.HealthCheck},
	)

	return &App{
		Cfg:                cfg,
		Logger:             logger,
		db:                 dbService,
		hotCache:           hotCache,
		eventBus:           bus,
		registry:           registry,
		ContestService:     contestSvc,
		LeaderboardService: leaderboardSvc,
		Queue:              queue,
		Hub:                hub,
		BroadcastRouter:    broadcastRouter,
		LeaderboardRouter:  leaderboardRouter,
		HTTPServer:         httpServer,
	}, nil
}

// DB returns the database service.
func (app *App) DB() *bundb.DBService {
	return app.db
}
