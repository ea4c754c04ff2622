package contestqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/code-arena-club/arena-backend/internal/attr"
)

// ContestStartWorker processes due start jobs: it drives the contest to
// ONGOING and arms the finish job.
type ContestStartWorker struct {
	river.WorkerDefaults[ContestStartJob]
	svc    *Service
	logger *slog.Logger
}

// NewContestStartWorker creates a worker for contest start jobs.
func NewContestStartWorker(svc *Service, logger *slog.Logger) *ContestStartWorker {
	return &ContestStartWorker{svc: svc, logger: logger}
}

// Work handles one start job delivery. Duplicate deliveries are success:
// the transition reports started=false and nothing else happens.
func (w *ContestStartWorker) Work(ctx context.Context, job *river.Job[ContestStartJob]) error {
	contestID := job.Args.ContestID
	ctxLogger := w.logger.With(
		attr.ContestID("contest_id", contestID),
		attr.Int64("job_id", job.ID),
	)
	ctxLogger.Info("Contest start job fired")

	transitioner := w.svc.phaseTransitioner()
	if transitioner == nil {
		return fmt.Errorf("phase transitioner not bound")
	}

	contest, started, err := transitioner.StartContest(ctx, contestID)
	if err != nil {
		ctxLogger.Error("Contest start transition failed", attr.Error(err))
		return fmt.Errorf("start contest %s: %w", contestID, err)
	}
	if !started {
		ctxLogger.Info("Contest already at or past ONGOING, nothing to do")
		return nil
	}

	// A contest whose end time already passed (long queue outage, clock
	// skew) finishes synchronously instead of taking a lap through an
	// already-due job.
	if !contest.EndTime.After(time.Now()) {
		ctxLogger.Warn("End time already passed at start, finishing synchronously",
			attr.Time("end_time", contest.EndTime))
		if err := transitioner.FinishContest(ctx, contestID); err != nil {
			return fmt.Errorf("finish overdue contest %s: %w", contestID, err)
		}
		return nil
	}

	if err := w.svc.ScheduleFinish(ctx, contest); err != nil {
		return fmt.Errorf("schedule finish for contest %s: %w", contestID, err)
	}
	return nil
}

// ContestFinishWorker processes due finish jobs: it drives the contest to
// FINISHED and settles the leaderboard.
type ContestFinishWorker struct {
	river.WorkerDefaults[ContestFinishJob]
	svc    *Service
	logger *slog.Logger
}

// NewContestFinishWorker creates a worker for contest finish jobs.
func NewContestFinishWorker(svc *Service, logger *slog.Logger) *ContestFinishWorker {
	return &ContestFinishWorker{svc: svc, logger: logger}
}

// Work handles one finish job delivery.
func (w *ContestFinishWorker) Work(ctx context.Context, job *river.Job[ContestFinishJob]) error {
	contestID := job.Args.ContestID
	ctxLogger := w.logger.With(
		attr.ContestID("contest_id", contestID),
		attr.Int64("job_id", job.ID),
	)
	ctxLogger.Info("Contest finish job fired")

	transitioner := w.svc.phaseTransitioner()
	if transitioner == nil {
		return fmt.Errorf("phase transitioner not bound")
	}

	if err := transitioner.FinishContest(ctx, contestID); err != nil {
		ctxLogger.Error("Contest finish transition failed", attr.Error(err))
		return fmt.Errorf("finish contest %s: %w", contestID, err)
	}
	return nil
}
