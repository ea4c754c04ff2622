package contestservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

func TestContestService_GetContest(t *testing.T) {
	contestID := uuid.New()

	t.Run("cache hit never touches storage", func(t *testing.T) {
		contest := ongoingContest(contestID)
		hotCache := &fakeHotCache{
			GetFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				return contest, nil
			},
		}
		repo := &fakeContestRepo{
			GetContestFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				t.Error("storage must not be read on a cache hit")
				return nil, nil
			},
		}
		svc := newTestContestService(repo, hotCache, &fakeLeaderboard{}, &fakeEventBus{}, nil)

		result, err := svc.GetContest(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetContest returned error: %v", err)
		}
		if got := result.Success.(*contestdomain.Contest); got.ID != contestID {
			t.Errorf("contest = %+v", got)
		}
	})

	t.Run("cache miss falls back to storage and re-warms ongoing contests", func(t *testing.T) {
		contest := ongoingContest(contestID)
		hotCache := &fakeHotCache{}
		repo := &fakeContestRepo{
			GetContestFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				return contest, nil
			},
		}
		svc := newTestContestService(repo, hotCache, &fakeLeaderboard{}, &fakeEventBus{}, nil)

		result, err := svc.GetContest(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetContest returned error: %v", err)
		}
		if result.Success == nil {
			t.Fatal("expected a contest")
		}
		if hotCache.setCalls != 1 {
			t.Errorf("re-warm Set calls = %d, want 1", hotCache.setCalls)
		}
	})

	t.Run("finished contest is not re-warmed", func(t *testing.T) {
		contest := ongoingContest(contestID)
		contest.Phase = contestdomain.PhaseFinished
		hotCache := &fakeHotCache{}
		repo := &fakeContestRepo{
			GetContestFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				return contest, nil
			},
		}
		svc := newTestContestService(repo, hotCache, &fakeLeaderboard{}, &fakeEventBus{}, nil)

		if _, err := svc.GetContest(context.Background(), contestID); err != nil {
			t.Fatalf("GetContest returned error: %v", err)
		}
		if hotCache.setCalls != 0 {
			t.Errorf("Set calls = %d, want 0 for a finished contest", hotCache.setCalls)
		}
	})

	t.Run("cache outage degrades to a storage read", func(t *testing.T) {
		contest := ongoingContest(contestID)
		hotCache := &fakeHotCache{
			GetFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				return nil, errors.New("connection refused")
			},
		}
		repo := &fakeContestRepo{
			GetContestFunc: func(ctx context.Context, id uuid.UUID) (*contestdomain.Contest, error) {
				return contest, nil
			},
		}
		svc := newTestContestService(repo, hotCache, &fakeLeaderboard{}, &fakeEventBus{}, nil)

		result, err := svc.GetContest(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetContest returned error: %v", err)
		}
		if result.Success == nil {
			t.Fatal("expected a contest despite the cache outage")
		}
	})

	t.Run("unknown contest is a business failure", func(t *testing.T) {
		svc := newTestContestService(&fakeContestRepo{}, &fakeHotCache{}, &fakeLeaderboard{}, &fakeEventBus{}, nil)

		result, err := svc.GetContest(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetContest returned error: %v", err)
		}
		notFound, ok := result.Failure.(ContestNotFound)
		if !ok {
			t.Fatalf("result.Failure = %T, want ContestNotFound", result.Failure)
		}
		if notFound.ContestID != contestID {
			t.Errorf("payload = %+v", notFound)
		}
	})
}
