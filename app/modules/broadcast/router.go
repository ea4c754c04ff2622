package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	contestevents "github.com/code-arena-club/arena-backend/app/modules/contest/events"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
)

const (
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// Router bridges bus subjects into the in-process hub: every published row
// update, status change, and phase change reaches every connected client of
// this instance regardless of which instance published it.
type Router struct {
	logger         *slog.Logger
	Router         *message.Router
	subscriber     eventbus.EventBus
	hub            *Hub
	metricsBuilder *metrics.PrometheusMetricsBuilder
	metricsEnabled bool
}

// NewRouter creates a new broadcast bridge router.
func NewRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	hub *Hub,
	prometheusRegistry *prometheus.Registry,
) *Router {
	actualAppEnv := os.Getenv(TestEnvironmentFlag)
	inTestEnv := actualAppEnv == TestEnvironmentValue

	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && !inTestEnv {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}

	return &Router{
		logger:         logger,
		Router:         router,
		subscriber:     subscriber,
		hub:            hub,
		metricsBuilder: metricsBuilder,
		metricsEnabled: prometheusRegistry != nil && !inTestEnv,
	}
}

// Configure sets up the middlewares and registers the bridge handlers.
func (r *Router) Configure(ctx context.Context) error {
	if r.metricsEnabled && r.metricsBuilder != nil {
		r.logger.Info("Adding Prometheus router metrics middleware for broadcast")
		r.metricsBuilder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(ctx)
}

// RegisterHandlers binds bus subjects to hub dispatch.
func (r *Router) RegisterHandlers(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Registering broadcast bridge handlers")

	r.Router.AddNoPublisherHandler(
		"broadcast."+leaderboardevents.LeaderboardRowUpdatedV1,
		leaderboardevents.LeaderboardRowUpdatedV1,
		r.subscriber,
		r.handleRowUpdated,
	)
	r.Router.AddNoPublisherHandler(
		"broadcast."+leaderboardevents.LeaderboardStatusChangedV1,
		leaderboardevents.LeaderboardStatusChangedV1,
		r.subscriber,
		r.handleStatusChanged,
	)
	r.Router.AddNoPublisherHandler(
		"broadcast."+contestevents.ContestPhaseChangedV1,
		contestevents.ContestPhaseChangedV1,
		r.subscriber,
		r.handlePhaseChanged,
	)

	return nil
}

func (r *Router) handleRowUpdated(msg *message.Message) error {
	var payload leaderboardevents.RowUpdatedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		r.logger.Error("Failed to decode row update, dropping",
			attr.String("message_id", msg.UUID),
			attr.Error(err))
		return nil
	}
	r.hub.PublishRow(payload.ContestID, payload.Row)
	return nil
}

func (r *Router) handleStatusChanged(msg *message.Message) error {
	var payload leaderboardevents.StatusChangedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		r.logger.Error("Failed to decode status change, dropping",
			attr.String("message_id", msg.UUID),
			attr.Error(err))
		return nil
	}
	r.hub.PublishStatus(payload.ContestID, payload.Status)
	return nil
}

func (r *Router) handlePhaseChanged(msg *message.Message) error {
	var payload contestevents.PhaseChangedPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		r.logger.Error("Failed to decode phase change, dropping",
			attr.String("message_id", msg.UUID),
			attr.Error(err))
		return nil
	}
	r.hub.PublishPhase(payload.ContestID, payload.To)
	return nil
}

// Close stops the router and cleans up resources.
func (r *Router) Close() error {
	if r.Router == nil {
		return fmt.Errorf("router not configured")
	}
	return r.Router.Close()
}
