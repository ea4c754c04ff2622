package contestdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// Repository defines database operations for contests.
type Repository interface {
	CreateContest(ctx context.Context, contest *contestdomain.Contest) error
	GetContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error)
	// ListUpcoming returns contests still in UPCOMING whose start time is
	// after the given instant. Used by startup reconciliation.
	ListUpcoming(ctx context.Context, after time.Time) ([]*contestdomain.Contest, error)
	// ListOngoing returns contests currently in ONGOING. Used by startup
	// reconciliation to re-arm finish jobs.
	ListOngoing(ctx context.Context) ([]*contestdomain.Contest, error)
	// TransitionPhase advances the persisted phase with a compare-and-set on
	// the prior phase. Returns false when no row matched, which means the
	// transition already happened.
	TransitionPhase(ctx context.Context, contestID uuid.UUID, from, to contestdomain.Phase) (bool, error)
	UpdateLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) error
}
