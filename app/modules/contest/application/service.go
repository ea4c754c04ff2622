package contestservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	contestcache "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/cache"
	contestqueue "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/queue"
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
	"github.com/code-arena-club/arena-backend/internal/metrics"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// ContestService implements the Service interface and the queue's phase
// transition contract.
type ContestService struct {
	repo        contestdb.Repository
	hotCache    contestcache.ContestCache
	leaderboard leaderboardservice.Service
	eventBus    eventbus.EventBus
	logger      *slog.Logger
	metrics     metrics.OperationMetrics
	tracer      trace.Tracer

	mu        sync.RWMutex
	scheduler contestqueue.QueueService
}

var (
	_ Service                        = (*ContestService)(nil)
	_ contestqueue.PhaseTransitioner = (*ContestService)(nil)
)

// NewContestService creates a new ContestService. The scheduler is bound
// later with SetScheduler because the queue service's workers call back
// into this service.
func NewContestService(
	repo contestdb.Repository,
	hotCache contestcache.ContestCache,
	leaderboard leaderboardservice.Service,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	operationMetrics metrics.OperationMetrics,
	tracer trace.Tracer,
) *ContestService {
	return &ContestService{
		repo:        repo,
		hotCache:    hotCache,
		leaderboard: leaderboard,
		eventBus:    eventBus,
		logger:      logger,
		metrics:     operationMetrics,
		tracer:      tracer,
	}
}

// SetScheduler binds the phase scheduler once it exists.
func (s *ContestService) SetScheduler(scheduler contestqueue.QueueService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler = scheduler
}

func (s *ContestService) phaseScheduler() contestqueue.QueueService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scheduler
}

type operationFunc func(ctx context.Context) (results.OperationResult, error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery so every method reports the same way.
func (s *ContestService) withTelemetry(ctx context.Context, operationName string, op operationFunc) (result results.OperationResult, err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, "ContestService")

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, "ContestService", time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, "ContestService")
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
		s.metrics.RecordOperationFailure(ctx, operationName, "ContestService")
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, "ContestService")
	return result, nil
}

// publish marshals a payload and publishes it best-effort.
func (s *ContestService) publish(ctx context.Context, topic string, payload any) {
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
