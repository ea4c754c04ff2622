package leaderboardservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboardcache "github.com/code-arena-club/arena-backend/app/modules/leaderboard/cache"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	leaderboardevents "github.com/code-arena-club/arena-backend/app/modules/leaderboard/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// ScoreApplied is the success payload of ApplyScore.
type ScoreApplied struct {
	ContestID    uuid.UUID             `json:"contest_id"`
	Row          leaderboarddomain.Row `json:"row"`
	TotalChanged bool                  `json:"total_changed"`
}

// ScoreRejected is the business-failure payload of ApplyScore.
type ScoreRejected struct {
	ContestID uuid.UUID `json:"contest_id"`
	UserID    uuid.UUID `json:"user_id"`
	Reason    string    `json:"reason"`
}

// ApplyScore applies one evaluated submission to the live leaderboard. The
// stored per-problem score only increases; equal scores are a no-op and do
// not broadcast.
func (s *LeaderboardService) ApplyScore(ctx context.Context, contestID, userID uuid.UUID, problemKey string, problemID uuid.UUID, score int) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "ApplyScore", func(ctx context.Context) (results.OperationResult, error) {
		user := contestdomain.UserRef{ID: userID}

		// A missing contest entry means the cache went cold (crash or a
		// score racing the start transition). Rebuild from the durable
		// contest record rather than dropping the update.
		if !s.cache.Tracked(contestID) {
			contest, err := s.contests.GetContest(ctx, contestID)
			if err != nil {
				return results.OperationResult{}, fmt.Errorf("score for unknown contest %s: %w", contestID, err)
			}
			if contest.Phase != contestdomain.PhaseOngoing {
				s.logger.WarnContext(ctx, "Score rejected, contest not live",
					attr.ContestID("contest_id", contestID),
					attr.String("phase", string(contest.Phase)))
				return results.Fail(ScoreRejected{
					ContestID: contestID,
					UserID:    userID,
					Reason:    fmt.Sprintf("contest is %s", contest.Phase),
				}), nil
			}

			s.logger.WarnContext(ctx, "Live leaderboard cold, rebuilding from roster",
				attr.ContestID("contest_id", contestID))
			s.cache.Init(contestID, leaderboarddomain.InitialRows(contest.ApprovedRoster()))
		}

		// Resolve the registrant identity only when the row does not exist
		// yet, so the common path stays off the database.
		if !s.cache.HasRow(contestID, userID) {
			user = s.resolveUser(ctx, contestID, userID)
		}

		row, changed, err := s.cache.ApplyScore(contestID, user, problemKey, problemID, score)
		if err != nil {
			if errors.Is(err, leaderboardcache.ErrContestNotTracked) {
				// Evicted between the Tracked check and the update; the
				// contest just finished.
				return results.Fail(ScoreRejected{
					ContestID: contestID,
					UserID:    userID,
					Reason:    "contest is no longer live",
				}), nil
			}
			return results.OperationResult{}, err
		}

		if changed {
			s.publish(ctx, leaderboardevents.LeaderboardRowUpdatedV1, leaderboardevents.RowUpdatedPayload{
				ContestID: contestID,
				Row:       row,
			})
		}

		return results.OK(ScoreApplied{
			ContestID:    contestID,
			Row:          row,
			TotalChanged: changed,
		}), nil
	})
}

// resolveUser finds the registrant on the contest roster, falling back to a
// bare reference when the roster does not know the user.
func (s *LeaderboardService) resolveUser(ctx context.Context, contestID, userID uuid.UUID) contestdomain.UserRef {
	contest, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not resolve registrant, using bare reference",
			attr.ContestID("contest_id", contestID),
			attr.UserID("user_id", userID),
			attr.Error(err))
		return contestdomain.UserRef{ID: userID}
	}
	for _, reg := range contest.Registrations {
		if reg.User.ID == userID {
			return reg.User
		}
	}
	return contestdomain.UserRef{ID: userID}
}
