package leaderboarddb

import (
	"context"

	"github.com/google/uuid"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// Repository defines database operations for settled leaderboards.
type Repository interface {
	// PersistSettled stores the final row set for a finished contest. The
	// settled leaderboard is immutable: persisting twice for the same contest
	// is a no-op, never an overwrite.
	PersistSettled(ctx context.Context, contestID uuid.UUID, rows leaderboarddomain.Rows) error
	GetSettled(ctx context.Context, contestID uuid.UUID) (leaderboarddomain.Rows, error)
}
