package contestservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestevents "github.com/code-arena-club/arena-backend/app/modules/contest/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

// StartContest drives the UPCOMING -> ONGOING transition. The phase commit
// is the only step that can fail the job; cache warming and leaderboard
// seeding are recoverable because reads fall back to durable storage on
// miss.
func (s *ContestService) StartContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, bool, error) {
	moved, err := s.repo.TransitionPhase(ctx, contestID, contestdomain.PhaseUpcoming, contestdomain.PhaseOngoing)
	if err != nil {
		return nil, false, fmt.Errorf("transition contest %s to ONGOING: %w", contestID, err)
	}
	if !moved {
		// Either a duplicate delivery or the contest is gone. Look to tell
		// them apart.
		contest, err := s.repo.GetContest(ctx, contestID)
		if err != nil {
			return nil, false, fmt.Errorf("contest %s missing after failed start transition: %w", contestID, err)
		}
		if contest.Phase.AtOrPast(contestdomain.PhaseOngoing) {
			return contest, false, nil
		}
		return nil, false, fmt.Errorf("contest %s in unexpected phase %s for start transition", contestID, contest.Phase)
	}

	contest, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return nil, false, fmt.Errorf("load contest %s after start transition: %w", contestID, err)
	}

	if err := s.hotCache.Set(ctx, contest, contest.HotCacheTTL()); err != nil {
		s.logger.WarnContext(ctx, "Failed to warm contest hot cache, reads will fall back to storage",
			attr.ContestID("contest_id", contestID),
			attr.Error(err))
	}

	if err := s.leaderboard.InitLive(ctx, contest); err != nil {
		s.logger.WarnContext(ctx, "Failed to seed live leaderboard, first score will rebuild it",
			attr.ContestID("contest_id", contestID),
			attr.Error(err))
	}

	s.logger.InfoContext(ctx, "Contest started",
		attr.ContestID("contest_id", contestID),
		attr.Time("end_time", contest.EndTime),
		attr.Int("roster_size", len(contest.ApprovedRoster())))

	s.publish(ctx, contestevents.ContestPhaseChangedV1, contestevents.PhaseChangedPayload{
		ContestID: contestID,
		From:      contestdomain.PhaseUpcoming,
		To:        contestdomain.PhaseOngoing,
	})

	return contest, true, nil
}

// FinishContest drives the ONGOING -> FINISHED transition. Settlement runs
// even when the phase was already FINISHED: a prior attempt may have
// committed the phase and then crashed before persisting standings, and
// settlement itself is insert-once so re-running is harmless.
func (s *ContestService) FinishContest(ctx context.Context, contestID uuid.UUID) error {
	moved, err := s.repo.TransitionPhase(ctx, contestID, contestdomain.PhaseOngoing, contestdomain.PhaseFinished)
	if err != nil {
		return fmt.Errorf("transition contest %s to FINISHED: %w", contestID, err)
	}

	contest, err := s.repo.GetContest(ctx, contestID)
	if err != nil {
		return fmt.Errorf("load contest %s for settlement: %w", contestID, err)
	}

	if !moved && contest.Phase != contestdomain.PhaseFinished {
		return fmt.Errorf("contest %s in unexpected phase %s for finish transition", contestID, contest.Phase)
	}

	// Durable settlement must complete before any cache eviction, else a
	// concurrent reader could see neither store.
	if err := s.leaderboard.Settle(ctx, contest); err != nil {
		return fmt.Errorf("settle leaderboard for contest %s: %w", contestID, err)
	}

	if err := s.hotCache.Delete(ctx, contestID); err != nil {
		s.logger.WarnContext(ctx, "Failed to evict contest hot cache, TTL will reap it",
			attr.ContestID("contest_id", contestID),
			attr.Error(err))
	}

	if moved {
		s.logger.InfoContext(ctx, "Contest finished",
			attr.ContestID("contest_id", contestID))
		s.publish(ctx, contestevents.ContestPhaseChangedV1, contestevents.PhaseChangedPayload{
			ContestID: contestID,
			From:      contestdomain.PhaseOngoing,
			To:        contestdomain.PhaseFinished,
		})
	}

	return nil
}
