package leaderboardservice

import (
	"context"
	"fmt"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
)

// InitLive seeds the in-memory leaderboard for a contest that just went
// live: one zero row per approved registrant, in roster order. Re-running
// it replaces any existing entry, which keeps the start transition
// idempotent.
func (s *LeaderboardService) InitLive(ctx context.Context, contest *contestdomain.Contest) error {
	rows := leaderboarddomain.InitialRows(contest.ApprovedRoster())
	s.cache.Init(contest.ID, rows)
	s.logger.InfoContext(ctx, "Live leaderboard initialized",
		attr.ContestID("contest_id", contest.ID),
		attr.Int("rows", len(rows)))
	return nil
}

// Settle freezes the final standings of a finishing contest into durable
// storage and evicts the live entry. The settled record is insert-once, so
// a retried finish never overwrites standings written by a prior attempt.
func (s *LeaderboardService) Settle(ctx context.Context, contest *contestdomain.Contest) error {
	rows, err := s.cache.Snapshot(contest.ID)
	if err != nil {
		// No live entry. Either this is a duplicate finish after a completed
		// settlement, or the cache was lost before settlement.
		if _, repoErr := s.repo.GetSettled(ctx, contest.ID); repoErr == nil {
			return nil
		}
		s.logger.WarnContext(ctx, "No live leaderboard at settlement, settling zeroed roster",
			attr.ContestID("contest_id", contest.ID))
		rows = leaderboarddomain.InitialRows(contest.ApprovedRoster())
	}
	rows.Sort()

	if err := s.repo.PersistSettled(ctx, contest.ID, rows); err != nil {
		return fmt.Errorf("persist settled leaderboard: %w", err)
	}

	s.cache.Delete(contest.ID)

	s.logger.InfoContext(ctx, "Leaderboard settled",
		attr.ContestID("contest_id", contest.ID),
		attr.Int("rows", len(rows)))

	s.publish(ctx, leaderboardevents.LeaderboardSettledV1, leaderboardevents.SettledPayload{
		ContestID: contest.ID,
		RowCount:  len(rows),
	})

	return nil
}
