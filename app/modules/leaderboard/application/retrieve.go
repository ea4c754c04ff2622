package leaderboardservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	leaderboarddb "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// GetLeaderboard returns the current standings for a contest. Live contests
// read from the in-memory cache; finished contests read the settled record.
// The selector is the cache itself: a tracked contest is live, anything else
// falls through to durable storage.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "GetLeaderboard", func(ctx context.Context) (results.OperationResult, error) {
		if rows, err := s.cache.Snapshot(contestID); err == nil {
			rows.Sort()
			return results.OK(leaderboarddomain.Leaderboard{
				ContestID: contestID,
				Rows:      rows,
			}), nil
		}

		rows, err := s.repo.GetSettled(ctx, contestID)
		if err != nil {
			if errors.Is(err, leaderboarddb.ErrLeaderboardNotFound) {
				return results.Fail(LeaderboardUnavailable{
					ContestID: contestID,
					Reason:    "no live or settled leaderboard for contest",
				}), nil
			}
			return results.OperationResult{}, fmt.Errorf("load settled leaderboard: %w", err)
		}

		rows.Sort()
		return results.OK(leaderboarddomain.Leaderboard{
			ContestID: contestID,
			Rows:      rows,
		}), nil
	})
}

// LeaderboardUnavailable is the business-failure payload of GetLeaderboard.
type LeaderboardUnavailable struct {
	ContestID uuid.UUID `json:"contest_id"`
	Reason    string    `json:"reason"`
}
