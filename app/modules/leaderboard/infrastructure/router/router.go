package leaderboardrouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// LeaderboardRouter consumes grading-pipeline events off the bus and applies
// them through the leaderboard service, so scores can arrive over NATS as
// well as over HTTP.
type LeaderboardRouter struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	service        leaderboardservice.Service
	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewLeaderboardRouter creates a new instance of the router.
func NewLeaderboardRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	service leaderboardservice.Service,
	prometheusRegistry *prometheus.Registry,
) *LeaderboardRouter {
	actualAppEnv := os.Getenv(TestEnvironmentFlag)
	inTestEnv := actualAppEnv == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}

	return &LeaderboardRouter{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		service:        service,
		metricsBuilder: metricsBuilder,
		metricsEnabled: prometheusRegistry != nil && !inTestEnv,
	}
}

// Configure sets up the middlewares and registers all module-specific event handlers.
func (r *LeaderboardRouter) Configure(ctx context.Context) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware for leaderboard")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(ctx)
}

// RegisterHandlers binds specific event topics to their corresponding handler logic.
func (r *LeaderboardRouter) RegisterHandlers(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Registering leaderboard event handlers")

	r.Router.AddNoPublisherHandler(
		"leaderboard."+leaderboardevents.ScoreReceivedV1,
		leaderboardevents.ScoreReceivedV1,
		r.subscriber,
		r.handleScoreReceived,
	)

	return nil
}

// handleScoreReceived applies one evaluated submission from the bus.
// Malformed payloads and business rejections are dropped after logging;
// only infrastructure errors are retried.
func (r *LeaderboardRouter) handleScoreReceived(msg *message.Message) error {
	ctx := msg.Context()

	var payload leaderboardevents.ScoreReceivedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		r.logger.Error("Failed to decode score event, dropping",
			attr.String("message_id", msg.UUID),
			attr.Error(err))
		return nil
	}

	result, err := r.service.ApplyScore(ctx, payload.ContestID, payload.UserID, payload.ProblemKey, payload.ProblemID, payload.Score)
	if err != nil {
		return err
	}
	if result.Failure != nil {
		r.logger.WarnContext(ctx, "Score event rejected",
			attr.String("message_id", msg.UUID),
			attr.ContestID("contest_id", payload.ContestID),
			attr.Any("reason", result.Failure))
	}
	return nil
}

// Close stops the router and cleans up resources.
func (r *LeaderboardRouter) Close() error {
	return r.Router.Close()
}
