package leaderboardservice

import (
	"context"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// Service is the leaderboard application contract.
type Service interface {
	// ApplyScore performs the best-of upsert for one evaluated submission and
	// broadcasts the updated row when the total changed.
	ApplyScore(ctx context.Context, contestID, userID uuid.UUID, problemKey string, problemID uuid.UUID, score int) (results.OperationResult, error)
	// GetLeaderboard returns the live leaderboard while the contest is
	// ONGOING and the settled one once FINISHED; callers never need to know
	// which.
	GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)
	// SetLeaderboardStatus persists the owner-controlled gate and broadcasts
	// the change out of band.
	SetLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) (results.OperationResult, error)

	// InitLive creates the live leaderboard when a contest goes ONGOING.
	InitLive(ctx context.Context, contest *contestdomain.Contest) error
	// Settle persists the final row set and evicts the live entry. Durable
	// persistence always completes before eviction.
	Settle(ctx context.Context, contest *contestdomain.Contest) error
}
