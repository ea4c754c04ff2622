package contestqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

// ReconcileOnStartup re-syncs the durable queue with the contest table after
// a crash or redeploy. It cancels jobs whose target contest is gone or
// already past the job's transition, then re-enqueues start jobs for future
// UPCOMING contests and finish jobs for everything still ONGOING. Unique
// insert opts keep re-enqueueing from duplicating jobs that survived.
func (s *Service) ReconcileOnStartup(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "reconcile_on_startup", "river")

	ctxLogger := s.logger.With(attr.String("operation", "reconcile_on_startup"))
	ctxLogger.Info("Reconciling phase jobs with contest records")

	cancelled, err := s.cancelStaleJobs(ctx)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "reconcile_on_startup", "river")
		return err
	}

	now := time.Now()

	upcoming, err := s.repo.ListUpcoming(ctx, now)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "reconcile_on_startup", "river")
		return fmt.Errorf("failed to list upcoming contests: %w", err)
	}
	startsEnqueued := 0
	for _, contest := range upcoming {
		if err := s.ScheduleStart(ctx, contest); err != nil {
			ctxLogger.Error("Failed to re-enqueue start job",
				attr.ContestID("contest_id", contest.ID), attr.Error(err))
			s.metrics.RecordOperationFailure(ctx, "reconcile_on_startup", "river")
			return err
		}
		startsEnqueued++
	}

	// A contest stuck ONGOING past its end time gets an immediately-due
	// finish job; this is the "next reconciliation" recovery path for a
	// finish that was lost.
	ongoing, err := s.repo.ListOngoing(ctx)
	if err != nil {
		s.metrics.RecordOperationFailure(ctx, "reconcile_on_startup", "river")
		return fmt.Errorf("failed to list ongoing contests: %w", err)
	}
	finishesEnqueued := 0
	for _, contest := range ongoing {
		if !contest.EndTime.After(now) {
			ctxLogger.Warn("ALERT: contest stuck ONGOING past end time, re-arming finish",
				attr.ContestID("contest_id", contest.ID),
				attr.Time("end_time", contest.EndTime))
		}
		if err := s.ScheduleFinish(ctx, contest); err != nil {
			ctxLogger.Error("Failed to re-enqueue finish job",
				attr.ContestID("contest_id", contest.ID), attr.Error(err))
			s.metrics.RecordOperationFailure(ctx, "reconcile_on_startup", "river")
			return err
		}
		finishesEnqueued++
	}

	duration := time.Since(start)
	s.metrics.RecordOperationSuccess(ctx, "reconcile_on_startup", "river")
	s.metrics.RecordOperationDuration(ctx, "reconcile_on_startup", "river", duration)

	ctxLogger.Info("Phase job reconciliation completed",
		attr.Int("cancelled", cancelled),
		attr.Int("starts_enqueued", startsEnqueued),
		attr.Int("finishes_enqueued", finishesEnqueued))
	return nil
}

// cancelStaleJobs cancels queued phase jobs whose contest no longer exists
// or whose transition already happened.
func (s *Service) cancelStaleJobs(ctx context.Context) (int, error) {
	type RiverJobRow struct {
		ID   int64                  `bun:"id"`
		Kind string                 `bun:"kind"`
		Args map[string]interface{} `bun:"args"`
	}

	var jobs []RiverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "args").
		Where("kind IN (?, ?)", "contest_start", "contest_finish").
		Where("state IN (?, ?)", "available", "scheduled").
		Scan(ctx, &jobs)
	if err != nil {
		return 0, fmt.Errorf("failed to query queued phase jobs: %w", err)
	}

	cancelled := 0
	for _, job := range jobs {
		raw, _ := job.Args["contest_id"].(string)
		contestID, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn("Phase job with malformed contest id, cancelling",
				attr.Int64("job_id", job.ID), attr.String("raw_contest_id", raw))
			if _, err := s.client.JobCancel(ctx, job.ID); err == nil {
				cancelled++
			}
			continue
		}

		contest, err := s.repo.GetContest(ctx, contestID)
		stale := false
		switch {
		case errors.Is(err, contestdb.ErrContestNotFound):
			stale = true
		case err != nil:
			return cancelled, fmt.Errorf("failed to load contest %s for job %d: %w", contestID, job.ID, err)
		case job.Kind == "contest_start" && contest.Phase != contestdomain.PhaseUpcoming:
			stale = true
		case job.Kind == "contest_finish" && contest.Phase != contestdomain.PhaseOngoing:
			stale = true
		}
		if !stale {
			continue
		}

		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.Warn("Failed to cancel stale job",
				attr.Int64("job_id", job.ID),
				attr.String("job_kind", job.Kind),
				attr.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}
