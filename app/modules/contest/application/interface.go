package contestservice

import (
	"context"
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// CreateContestInput carries everything needed to create a contest.
type CreateContestInput struct {
	Title         string                       `json:"title"`
	OwnerID       uuid.UUID                    `json:"owner_id"`
	StartTime     time.Time                    `json:"start_time"`
	EndTime       time.Time                    `json:"end_time"`
	Visible       bool                         `json:"visible"`
	Problems      []contestdomain.ProblemRef   `json:"problems"`
	Registrations []contestdomain.Registration `json:"registrations"`
}

// Service is the contest application contract.
type Service interface {
	// CreateContest validates and persists a new contest and arms its start
	// job.
	CreateContest(ctx context.Context, input CreateContestInput) (results.OperationResult, error)
	// GetContest reads the contest document, hot cache first with durable
	// fallback.
	GetContest(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)

	// StartContest drives UPCOMING -> ONGOING: persist, warm the hot cache,
	// seed the live leaderboard. started is false for duplicate deliveries.
	StartContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, bool, error)
	// FinishContest drives ONGOING -> FINISHED: persist, settle the
	// leaderboard, evict caches. Idempotent.
	FinishContest(ctx context.Context, contestID uuid.UUID) error
}
