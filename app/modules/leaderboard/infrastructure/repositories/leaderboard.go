package leaderboarddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// ErrLeaderboardNotFound is returned when no settled leaderboard exists for
// the contest.
var ErrLeaderboardNotFound = errors.New("settled leaderboard not found")

// LeaderboardDBImpl handles database operations for settled leaderboards.
type LeaderboardDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*LeaderboardDBImpl)(nil)

// PersistSettled inserts the final row set. ON CONFLICT DO NOTHING keeps the
// first settled snapshot authoritative against duplicate finish deliveries.
func (db *LeaderboardDBImpl) PersistSettled(ctx context.Context, contestID uuid.UUID, rows leaderboarddomain.Rows) error {
	record := &SettledLeaderboard{
		ContestID: contestID,
		Rows:      rows,
	}

	_, err := db.DB.NewInsert().
		Model(record).
		On("CONFLICT (contest_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to persist settled leaderboard for contest %s: %w", contestID, err)
	}
	return nil
}

// GetSettled retrieves the settled row set for a finished contest.
func (db *LeaderboardDBImpl) GetSettled(ctx context.Context, contestID uuid.UUID) (leaderboarddomain.Rows, error) {
	record := new(SettledLeaderboard)
	err := db.DB.NewSelect().
		Model(record).
		Where("contest_id = ?", contestID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaderboardNotFound
		}
		return nil, fmt.Errorf("failed to get settled leaderboard for contest %s: %w", contestID, err)
	}
	return record.Rows, nil
}
