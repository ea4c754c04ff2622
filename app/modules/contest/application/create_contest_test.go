package contestservice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestevents "github.com/code-arena-club/arena-backend/app/modules/contest/events"
)

func validInput() CreateContestInput {
	start := time.Now().Add(time.Hour)
	return CreateContestInput{
		Title:     "Weekly Round 12",
		OwnerID:   uuid.New(),
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Visible:   true,
		Problems: []contestdomain.ProblemRef{
			{Key: "A", ID: uuid.New()},
			{Key: "B", ID: uuid.New()},
		},
		Registrations: []contestdomain.Registration{
			{User: contestdomain.UserRef{ID: uuid.New(), Username: "alice"}, Status: contestdomain.RegistrationApproved},
		},
	}
}

func TestContestService_CreateContest(t *testing.T) {
	t.Run("valid input persists, arms the start job, and announces", func(t *testing.T) {
		repo := &fakeContestRepo{}
		scheduler := &fakeScheduler{}
		bus := &fakeEventBus{}
		svc := newTestContestService(repo, &fakeHotCache{}, &fakeLeaderboard{}, bus, scheduler)

		input := validInput()
		result, err := svc.CreateContest(context.Background(), input)
		if err != nil {
			t.Fatalf("CreateContest returned error: %v", err)
		}

		created, ok := result.Success.(ContestCreated)
		if !ok {
			t.Fatalf("result.Success = %T, want ContestCreated", result.Success)
		}
		contest := created.Contest
		if contest.Phase != contestdomain.PhaseUpcoming {
			t.Errorf("phase = %s, want UPCOMING", contest.Phase)
		}
		if contest.LeaderboardStatus != contestdomain.LeaderboardOpen {
			t.Errorf("leaderboard status = %s, want OPEN", contest.LeaderboardStatus)
		}
		if contest.ID == uuid.Nil {
			t.Error("contest id not assigned")
		}

		if len(repo.created) != 1 {
			t.Fatalf("persisted %d contests, want 1", len(repo.created))
		}
		if len(scheduler.startScheduled) != 1 || scheduler.startScheduled[0].ID != contest.ID {
			t.Errorf("start job not armed for the new contest")
		}

		var payload contestevents.CreatedPayload
		bus.decodeLast(t, contestevents.ContestCreatedV1, &payload)
		if payload.ContestID != contest.ID || payload.Title != input.Title {
			t.Errorf("created payload = %+v", payload)
		}
	})

	t.Run("schedule failure does not fail the create", func(t *testing.T) {
		repo := &fakeContestRepo{}
		scheduler := &fakeScheduler{
			ScheduleStartFunc: func(ctx context.Context, contest *contestdomain.Contest) error {
				return context.DeadlineExceeded
			},
		}
		svc := newTestContestService(repo, &fakeHotCache{}, &fakeLeaderboard{}, &fakeEventBus{}, scheduler)

		result, err := svc.CreateContest(context.Background(), validInput())
		if err != nil {
			t.Fatalf("CreateContest returned error: %v", err)
		}
		if result.Success == nil {
			t.Fatal("create must succeed even when the start job cannot be armed")
		}
	})

	t.Run("invalid input is rejected before persistence", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*CreateContestInput)
		}{
			{"missing title", func(in *CreateContestInput) { in.Title = "" }},
			{"missing owner", func(in *CreateContestInput) { in.OwnerID = uuid.Nil }},
			{"zero start time", func(in *CreateContestInput) { in.StartTime = time.Time{} }},
			{"end before start", func(in *CreateContestInput) { in.EndTime = in.StartTime.Add(-time.Minute) }},
			{"end equals start", func(in *CreateContestInput) { in.EndTime = in.StartTime }},
			{"empty problem key", func(in *CreateContestInput) { in.Problems[0].Key = "" }},
			{"duplicate problem key", func(in *CreateContestInput) { in.Problems[1].Key = in.Problems[0].Key }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &fakeContestRepo{}
				svc := newTestContestService(repo, &fakeHotCache{}, &fakeLeaderboard{}, &fakeEventBus{}, &fakeScheduler{})

				input := validInput()
				tt.mutate(&input)

				result, err := svc.CreateContest(context.Background(), input)
				if err != nil {
					t.Fatalf("CreateContest returned error: %v", err)
				}
				if _, ok := result.Failure.(ContestRejected); !ok {
					t.Fatalf("result.Failure = %T, want ContestRejected", result.Failure)
				}
				if len(repo.created) != 0 {
					t.Error("invalid input must not reach the repository")
				}
			})
		}
	})
}
