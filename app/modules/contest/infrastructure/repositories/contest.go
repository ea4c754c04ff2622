package contestdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// ErrContestNotFound is returned when no contest exists for the given id.
var ErrContestNotFound = errors.New("contest not found")

// ContestDBImpl handles database operations for contests.
type ContestDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*ContestDBImpl)(nil)

// CreateContest persists a new contest record.
func (db *ContestDBImpl) CreateContest(ctx context.Context, contest *contestdomain.Contest) error {
	model := fromDomain(contest)
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
		contest.ID = model.ID
	}
	if model.Phase == "" {
		model.Phase = contestdomain.PhaseUpcoming
		contest.Phase = model.Phase
	}
	if model.LeaderboardStatus == "" {
		model.LeaderboardStatus = contestdomain.LeaderboardOpen
		contest.LeaderboardStatus = model.LeaderboardStatus
	}

	if _, err := db.DB.NewInsert().Model(model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert contest: %w", err)
	}
	return nil
}

// GetContest retrieves the full contest document by id.
func (db *ContestDBImpl) GetContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error) {
	model := new(Contest)
	err := db.DB.NewSelect().
		Model(model).
		Where("id = ?", contestID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContestNotFound
		}
		return nil, fmt.Errorf("failed to get contest: %w", err)
	}
	return model.toDomain(), nil
}

// ListUpcoming returns UPCOMING contests starting after the given instant.
func (db *ContestDBImpl) ListUpcoming(ctx context.Context, after time.Time) ([]*contestdomain.Contest, error) {
	var models []Contest
	err := db.DB.NewSelect().
		Model(&models).
		Where("phase = ?", contestdomain.PhaseUpcoming).
		Where("start_time > ?", after).
		Order("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming contests: %w", err)
	}

	contests := make([]*contestdomain.Contest, len(models))
	for i := range models {
		contests[i] = models[i].toDomain()
	}
	return contests, nil
}

// ListOngoing returns all contests currently in ONGOING.
func (db *ContestDBImpl) ListOngoing(ctx context.Context) ([]*contestdomain.Contest, error) {
	var models []Contest
	err := db.DB.NewSelect().
		Model(&models).
		Where("phase = ?", contestdomain.PhaseOngoing).
		Order("end_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ongoing contests: %w", err)
	}

	contests := make([]*contestdomain.Contest, len(models))
	for i := range models {
		contests[i] = models[i].toDomain()
	}
	return contests, nil
}

// TransitionPhase performs a compare-and-set on the phase column. A zero
// rows-affected result means another worker already moved the contest past
// the `from` phase.
func (db *ContestDBImpl) TransitionPhase(ctx context.Context, contestID uuid.UUID, from, to contestdomain.Phase) (bool, error) {
	res, err := db.DB.NewUpdate().
		Model((*Contest)(nil)).
		Set("phase = ?", to).
		Set("updated_at = current_timestamp").
		Where("id = ?", contestID).
		Where("phase = ?", from).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to transition contest %s from %s to %s: %w", contestID, from, to, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for phase transition: %w", err)
	}
	return affected == 1, nil
}

// UpdateLeaderboardStatus persists the owner-controlled visibility gate.
func (db *ContestDBImpl) UpdateLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) error {
	res, err := db.DB.NewUpdate().
		Model((*Contest)(nil)).
		Set("leaderboard_status = ?", status).
		Set("updated_at = current_timestamp").
		Where("id = ?", contestID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update leaderboard status for contest %s: %w", contestID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for status update: %w", err)
	}
	if affected == 0 {
		return ErrContestNotFound
	}
	return nil
}
