package contestqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

// Metrics is the subset of operation metrics the queue service records.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// PhaseTransitioner is what the phase workers call when a job fires. The
// contest application service implements it; the indirection exists because
// the service also holds this queue for scheduling.
type PhaseTransitioner interface {
	// StartContest performs the UPCOMING -> ONGOING transition. started is
	// false when the contest was already at or past ONGOING, which is a
	// success for duplicate deliveries.
	StartContest(ctx context.Context, contestID uuid.UUID) (contest *contestdomain.Contest, started bool, err error)
	// FinishContest performs the ONGOING -> FINISHED transition, settling
	// the leaderboard. Idempotent for duplicate deliveries.
	FinishContest(ctx context.Context, contestID uuid.UUID) error
}

// QueueService is the contract for durable phase-job scheduling.
type QueueService interface {
	// ScheduleStart enqueues the start job for a newly created contest.
	// No-op when the start time has passed or the contest is not UPCOMING.
	ScheduleStart(ctx context.Context, contest *contestdomain.Contest) error
	// ScheduleFinish enqueues the finish job after a successful start
	// transition or during reconciliation. A past end time enqueues an
	// immediately-due job.
	ScheduleFinish(ctx context.Context, contest *contestdomain.Contest) error
	// CancelContestJobs cancels all scheduled jobs for a specific contest
	CancelContestJobs(ctx context.Context, contestID uuid.UUID) error
	// GetScheduledJobs returns information about scheduled jobs for a contest (for debugging)
	GetScheduledJobs(ctx context.Context, contestID uuid.UUID) ([]JobInfo, error)
	// ReconcileOnStartup re-syncs the durable queue with the contest table
	// after a crash or redeploy.
	ReconcileOnStartup(ctx context.Context) error
	// HealthCheck verifies the queue service is healthy
	HealthCheck(ctx context.Context) error
	// Start starts the queue service
	Start(ctx context.Context) error
	// Stop stops the queue service
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Service handles phase-job scheduling for the contest module using River
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	repo    contestdb.Repository
	metrics Metrics

	mu           sync.RWMutex
	transitioner PhaseTransitioner
}

const (
	initRetries      = 5
	initRetryBackoff = 1 * time.Second
)

// NewService creates a new River-based queue service for contest phase
// scheduling. Queue unavailability at startup is retried with exponential
// backoff before giving up; without phase automation the platform cannot
// safely run.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, repo contestdb.Repository) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_contest_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing contest queue service")

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// River requires pgx, not database/sql.
	var pool *pgxpool.Pool
	backoff := initRetryBackoff
	for attempt := 1; ; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			err = pool.Ping(ctx)
			if err == nil {
				break
			}
			pool.Close()
		}
		if attempt >= initRetries {
			ctxLogger.Error("Queue database unreachable, giving up",
				attr.Int("attempts", attempt), attr.Error(err))
			metrics.RecordOperationFailure(ctx, "initialize_service", "river")
			return nil, fmt.Errorf("failed to connect queue database after %d attempts: %w", attempt, err)
		}
		ctxLogger.Warn("Queue database unreachable, retrying",
			attr.Int("attempt", attempt),
			attr.Duration("backoff", backoff),
			attr.Error(err))
		select {
		case <-ctx.Done():
			metrics.RecordOperationFailure(ctx, "initialize_service", "river")
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	service := &Service{
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		repo:    repo,
		metrics: metrics,
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewContestStartWorker(service, ctxLogger))
	river.AddWorker(workers, NewContestFinishWorker(service, ctxLogger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 50},
			"contest":          {MaxWorkers: 25}, // Dedicated queue for phase jobs
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}
	service.client = riverClient

	duration := time.Since(start)
	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", duration)

	ctxLogger.Info("Contest queue service initialized successfully")
	return service, nil
}

// SetTransitioner binds the phase transition handler. Must be called before
// Start; the binding is late because the contest service holds this queue
// for scheduling and is constructed after it.
func (s *Service) SetTransitioner(t PhaseTransitioner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitioner = t
}

func (s *Service) phaseTransitioner() PhaseTransitioner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transitioner
}

// Start starts the River queue service
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.logger.Info("Starting contest queue service")

	if s.phaseTransitioner() == nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("phase transitioner not bound")
	}

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", duration)

	s.logger.Info("Contest queue service started successfully")
	return nil
}

// Stop stops the River queue service
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping contest queue service")

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", duration)

	s.logger.Info("Contest queue service stopped successfully")
	return nil
}

// ScheduleStart schedules the start job for a contest. Called once at
// contest creation and by startup reconciliation.
func (s *Service) ScheduleStart(ctx context.Context, contest *contestdomain.Contest) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_contest_start", "river")

	ctxLogger := s.logger.With(
		attr.ContestID("contest_id", contest.ID),
		attr.Time("start_time", contest.StartTime),
		attr.String("operation", "schedule_contest_start"),
	)

	now := time.Now()
	if contest.Phase != contestdomain.PhaseUpcoming {
		ctxLogger.Info("Contest not UPCOMING, skipping start scheduling",
			attr.String("phase", string(contest.Phase)))
		s.metrics.RecordOperationSuccess(ctx, "schedule_contest_start", "river")
		return nil
	}
	if !contest.StartTime.After(now) {
		ctxLogger.Info("Start time already passed, skipping start scheduling",
			attr.Duration("difference", contest.StartTime.Sub(now)))
		s.metrics.RecordOperationSuccess(ctx, "schedule_contest_start", "river")
		return nil
	}

	job := ContestStartJob{ContestID: contest.ID}

	jobResult, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       "contest",
		ScheduledAt: contest.StartTime,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true, // Prevent duplicate scheduling for same contest
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule contest start job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_contest_start", "river")
		return fmt.Errorf("failed to schedule contest start job: %w", err)
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "schedule_contest_start", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_contest_start", "river", duration)

	ctxLogger.Info("Contest start job scheduled successfully",
		attr.Duration("delay", contest.StartTime.Sub(now)),
		attr.Int64("job_id", jobResult.Job.ID))
	return nil
}

// ScheduleFinish schedules the finish job for a contest that just went
// ONGOING. A past end time enqueues an immediately-due job; the synchronous
// fast path for that case lives in the start worker.
func (s *Service) ScheduleFinish(ctx context.Context, contest *contestdomain.Contest) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_contest_finish", "river")

	ctxLogger := s.logger.With(
		attr.ContestID("contest_id", contest.ID),
		attr.Time("end_time", contest.EndTime),
		attr.String("operation", "schedule_contest_finish"),
	)

	now := time.Now()
	scheduledAt := contest.EndTime
	if !scheduledAt.After(now) {
		ctxLogger.Warn("End time already passed, enqueueing immediately-due finish job",
			attr.Duration("difference", scheduledAt.Sub(now)))
		scheduledAt = now
	}

	job := ContestFinishJob{ContestID: contest.ID}

	jobResult, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       "contest",
		ScheduledAt: scheduledAt,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true, // Prevent duplicate scheduling for same contest
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule contest finish job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_contest_finish", "river")
		return fmt.Errorf("failed to schedule contest finish job: %w", err)
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "schedule_contest_finish", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_contest_finish", "river", duration)

	ctxLogger.Info("Contest finish job scheduled successfully",
		attr.Duration("delay", scheduledAt.Sub(now)),
		attr.Int64("job_id", jobResult.Job.ID))
	return nil
}

// CancelContestJobs cancels all scheduled jobs for a specific contest
func (s *Service) CancelContestJobs(ctx context.Context, contestID uuid.UUID) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "cancel_contest_jobs", "river")

	ctxLogger := s.logger.With(
		attr.ContestID("contest_id", contestID),
		attr.String("operation", "cancel_contest_jobs"),
	)

	ctxLogger.Info("Cancelling scheduled jobs for contest")

	type RiverJobRow struct {
		ID          int64                  `bun:"id"`
		Kind        string                 `bun:"kind"`
		State       string                 `bun:"state"`
		Args        map[string]interface{} `bun:"args"`
		ScheduledAt *time.Time             `bun:"scheduled_at"`
	}

	var jobs []RiverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at").
		Where("kind IN (?, ?)", "contest_start", "contest_finish").
		Where("state IN (?, ?)", "available", "scheduled").
		Where("args->>'contest_id' = ?", contestID.String()).
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "cancel_contest_jobs", "river")
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	if len(jobs) == 0 {
		ctxLogger.Info("No jobs found to cancel")
		duration := time.Since(start)
		s.metrics.RecordOperationSuccess(ctx, "cancel_contest_jobs", "river")
		s.metrics.RecordOperationDuration(ctx, "cancel_contest_jobs", "river", duration)
		return nil
	}

	cancelledCount := 0
	for _, job := range jobs {
		_, err := s.client.JobCancel(ctx, job.ID)
		if err != nil {
			ctxLogger.Warn("Failed to cancel job",
				attr.Int64("job_id", job.ID),
				attr.String("job_kind", job.Kind),
				attr.Error(err))
			continue
		}
		cancelledCount++
	}

	duration := time.Since(start)
	if cancelledCount == len(jobs) {
		s.metrics.RecordOperationSuccess(ctx, "cancel_contest_jobs", "river")
	} else {
		s.metrics.RecordOperationFailure(ctx, "cancel_contest_jobs", "river")
	}
	s.metrics.RecordOperationDuration(ctx, "cancel_contest_jobs", "river", duration)

	ctxLogger.Info("Jobs cancellation completed",
		attr.Int("total_found", len(jobs)),
		attr.Int("cancelled_count", cancelledCount))

	return nil
}

// GetScheduledJobs returns information about scheduled jobs for a contest (for debugging)
func (s *Service) GetScheduledJobs(ctx context.Context, contestID uuid.UUID) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "get_scheduled_jobs", "river")

	ctxLogger := s.logger.With(
		attr.ContestID("contest_id", contestID),
		attr.String("operation", "get_scheduled_jobs"),
	)

	type RiverJobRow struct {
		ID          int64                  `bun:"id"`
		Kind        string                 `bun:"kind"`
		State       string                 `bun:"state"`
		Args        map[string]interface{} `bun:"args"`
		ScheduledAt *time.Time             `bun:"scheduled_at"`
		CreatedAt   time.Time              `bun:"created_at"`
		Attempt     int16                  `bun:"attempt"`
		MaxAttempts int16                  `bun:"max_attempts"`
	}

	var jobs []RiverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "args", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind IN (?, ?)", "contest_start", "contest_finish").
		Where("args->>'contest_id' = ?", contestID.String()).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query scheduled jobs", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "get_scheduled_jobs", "river")
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}

		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			ContestID:   contestID.String(),
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "get_scheduled_jobs", "river")
	s.metrics.RecordOperationDuration(ctx, "get_scheduled_jobs", "river", duration)

	return result, nil
}

// HealthCheck verifies the queue service is healthy
func (s *Service) HealthCheck(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "health_check", "river")

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("queue service health check failed: %w", err)
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "health_check", "river")
	s.metrics.RecordOperationDuration(ctx, "health_check", "river", duration)

	s.logger.Debug("Queue service health check passed", attr.Int("total_jobs", count))
	return nil
}

// GetClient returns the underlying River client for advanced operations
func (s *Service) GetClient() *river.Client[pgx.Tx] {
	return s.client
}
