package contestservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestevents "github.com/code-arena-club/arena-backend/app/modules/contest/events"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// ContestCreated is the success payload of CreateContest.
type ContestCreated struct {
	Contest *contestdomain.Contest `json:"contest"`
}

// ContestRejected is the business-failure payload of CreateContest.
type ContestRejected struct {
	Reason string `json:"reason"`
}

// CreateContest validates and persists a new contest, then arms its start
// job. The contest starts in UPCOMING with an OPEN leaderboard.
func (s *ContestService) CreateContest(ctx context.Context, input CreateContestInput) (results.OperationResult, error) {
	return s.withTelemetry(ctx, "CreateContest", func(ctx context.Context) (results.OperationResult, error) {
		if reason := validateInput(input); reason != "" {
			return results.Fail(ContestRejected{Reason: reason}), nil
		}

		contest := &contestdomain.Contest{
			ID:                uuid.New(),
			Title:             input.Title,
			OwnerID:           input.OwnerID,
			Phase:             contestdomain.PhaseUpcoming,
			LeaderboardStatus: contestdomain.LeaderboardOpen,
			StartTime:         input.StartTime,
			EndTime:           input.EndTime,
			Visible:           input.Visible,
			Problems:          input.Problems,
			Registrations:     input.Registrations,
		}

		if err := s.repo.CreateContest(ctx, contest); err != nil {
			return results.OperationResult{}, fmt.Errorf("persist contest: %w", err)
		}

		if scheduler := s.phaseScheduler(); scheduler != nil {
			if err := scheduler.ScheduleStart(ctx, contest); err != nil {
				// The contest exists either way; reconciliation re-arms the
				// job on next startup.
				s.logger.ErrorContext(ctx, "ALERT: failed to schedule start job for new contest",
					attr.ContestID("contest_id", contest.ID),
					attr.Error(err))
			}
		} else {
			s.logger.WarnContext(ctx, "No scheduler bound, start job not armed",
				attr.ContestID("contest_id", contest.ID))
		}

		s.logger.InfoContext(ctx, "Contest created",
			attr.ContestID("contest_id", contest.ID),
			attr.String("title", contest.Title),
			attr.Time("start_time", contest.StartTime),
			attr.Int("registrations", len(contest.Registrations)))

		s.publish(ctx, contestevents.ContestCreatedV1, contestevents.CreatedPayload{
			ContestID: contest.ID,
			Title:     contest.Title,
			OwnerID:   contest.OwnerID,
			StartTime: contest.StartTime,
			EndTime:   contest.EndTime,
		})

		return results.OK(ContestCreated{Contest: contest}), nil
	})
}

func validateInput(input CreateContestInput) string {
	if input.Title == "" {
		return "contest title is required"
	}
	if input.OwnerID == uuid.Nil {
		return "owner id is required"
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return "start and end times are required"
	}
	if !input.EndTime.After(input.StartTime) {
		return "end time must be after start time"
	}
	seen := make(map[string]bool, len(input.Problems))
	for _, p := range input.Problems {
		if p.Key == "" {
			return "problem key is required"
		}
		if seen[p.Key] {
			return fmt.Sprintf("duplicate problem key %q", p.Key)
		}
		seen[p.Key] = true
	}
	return ""
}
