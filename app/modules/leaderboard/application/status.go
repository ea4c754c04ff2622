package leaderboardservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// SetLeaderboardStatus updates the visibility status of a contest's
// leaderboard (OPEN, FROZEN, CLOSED) and announces the change to connected
// viewers. The status is an out-of-band signal layered on top of the phase
// lifecycle; it does not stop score application.
func (s *LeaderboardService) SetLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "SetLeaderboardStatus", func(ctx context.Context) (results.OperationResult, error) {
		if !status.Valid() {
			return results.Fail(StatusRejected{
				ContestID: contestID,
				Reason:    fmt.Sprintf("unknown leaderboard status %q", status),
			}), nil
		}

		if err := s.contests.UpdateLeaderboardStatus(ctx, contestID, status); err != nil {
			return results.OperationResult{}, fmt.Errorf("persist leaderboard status: %w", err)
		}

		s.logger.InfoContext(ctx, "Leaderboard status changed",
			attr.ContestID("contest_id", contestID),
			attr.String("status", string(status)))

		s.publish(ctx, leaderboardevents.LeaderboardStatusChangedV1, leaderboardevents.StatusChangedPayload{
			ContestID: contestID,
			Status:    status,
		})

		return results.OK(StatusChanged{ContestID: contestID, Status: status}), nil
	})
}

// StatusChanged is the success payload of SetLeaderboardStatus.
type StatusChanged struct {
	ContestID uuid.UUID                       `json:"contest_id"`
	Status    contestdomain.LeaderboardStatus `json:"status"`
}

// StatusRejected is the business-failure payload of SetLeaderboardStatus.
type StatusRejected struct {
	ContestID uuid.UUID `json:"contest_id"`
	Reason    string    `json:"reason"`
}
