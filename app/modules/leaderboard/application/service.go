package leaderboardservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	leaderboardcache "github.com/code-arena-club/arena-backend/app/modules/leaderboard/cache"
	leaderboarddb "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
	"github.com/code-arena-club/arena-backend/internal/metrics"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// LeaderboardService implements the Service interface.
type LeaderboardService struct {
	cache    *leaderboardcache.Cache
	repo     leaderboarddb.Repository
	contests contestdb.Repository
	eventBus eventbus.EventBus
	logger   *slog.Logger
	metrics  metrics.OperationMetrics
	tracer   trace.Tracer
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	cache *leaderboardcache.Cache,
	repo leaderboarddb.Repository,
	contests contestdb.Repository,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	operationMetrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *LeaderboardService {
	return &LeaderboardService{
		cache:    cache,
		repo:     repo,
		contests: contests,
		eventBus: eventBus,
		logger:   logger,
		metrics:  operationMetrics,
		tracer:   tracer,
	}
}

type operationFunc func(ctx context.Context) (results.OperationResult, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery so every method reports the same way.
func (s *LeaderboardService) withTelemetry(ctx context.Context, operationName string, op operationFunc) (result results.OperationResult, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "LeaderboardService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "LeaderboardService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "LeaderboardService")
			span.RecordError(err)
			result = results.OperationResult{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, "LeaderboardService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "LeaderboardService")
	return result, nil
}

// publish marshals a payload and publishes it, logging instead of failing
// the mutation when the broker is unavailable: broadcast is best-effort and
// subscribers resync on reconnect.
func (s *LeaderboardService) publish(ctx context.Context, topic string, payload any) {
	if s.eventBus == nil {
		return
	}
	msg, err := eventbus.NewMessage(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to build event message",
			attr.String("topic", topic), attr.Error(err))
		return
	}
	if err := s.eventBus.Publish(topic, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			attr.String("topic", topic), attr.Error(err))
	}
}
