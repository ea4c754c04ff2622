package contestservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestcache "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/cache"
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// ContestNotFound is the business-failure payload of GetContest.
type ContestNotFound struct {
	ContestID uuid.UUID `json:"contest_id"`
}

// GetContest reads the contest document: hot cache first, durable storage
// on miss. An ONGOING contest found only in storage is re-warmed into the
// cache on the way out.
func (s *ContestService) GetContest(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "GetContest", func(ctx context.Context) (results.OperationResult, error) {
		if contest, err := s.hotCache.Get(ctx, contestID); err == nil {
			return results.OK(contest), nil
		} else if !errors.Is(err, contestcache.ErrCacheMiss) {
			// Cache outage degrades to a storage read.
			s.logger.WarnContext(ctx, "Contest hot cache unavailable, reading from storage",
				attr.ContestID("contest_id", contestID),
				attr.Error(err))
		}

		contest, err := s.repo.GetContest(ctx, contestID)
		if err != nil {
			if errors.Is(err, contestdb.ErrContestNotFound) {
				return results.Fail(ContestNotFound{ContestID: contestID}), nil
			}
			return results.OperationResult{}, fmt.Errorf("load contest: %w", err)
		}

		if contest.Phase == contestdomain.PhaseOngoing {
			if err := s.hotCache.Set(ctx, contest, contest.HotCacheTTL()); err != nil {
				s.logger.WarnContext(ctx, "Failed to re-warm contest hot cache",
					attr.ContestID("contest_id", contestID),
					attr.Error(err))
			}
		}

		return results.OK(contest), nil
	})
}
