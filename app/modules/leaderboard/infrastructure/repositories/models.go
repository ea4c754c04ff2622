package leaderboarddb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// SettledLeaderboard is the immutable durable snapshot of a finished
// contest's leaderboard. One record per contest.
type SettledLeaderboard struct {
	bun.BaseModel `bun:"table:settled_leaderboards,alias:sl"`

	ID        int64                  `bun:"id,pk,autoincrement"`
	ContestID uuid.UUID              `bun:"contest_id,type:uuid,notnull,unique"`
	Rows      leaderboarddomain.Rows `bun:"rows,type:jsonb,notnull"`
	SettledAt time.Time              `bun:"settled_at,nullzero,notnull,default:current_timestamp"`
}
