package leaderboardservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboardcache "github.com/code-arena-club/arena-backend/app/modules/leaderboard/cache"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

func TestLeaderboardService_GetLeaderboard(t *testing.T) {
	contestID := uuid.New()
	alice := contestdomain.UserRef{ID: uuid.New(), Username: "alice"}
	bob := contestdomain.UserRef{ID: uuid.New(), Username: "bob"}

	t.Run("live contest reads the cache, sorted by total", func(t *testing.T) {
		cache := leaderboardcache.New()
		cache.Init(contestID, leaderboarddomain.InitialRows([]contestdomain.UserRef{alice, bob}))
		if _, _, err := cache.ApplyScore(contestID, bob, "A", uuid.New(), 90); err != nil {
			t.Fatalf("ApplyScore returned error: %v", err)
		}
		svc := newTestService(cache, &fakeSettledRepo{}, &fakeContestRepo{}, &fakeEventBus{})

		result, err := svc.GetLeaderboard(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetLeaderboard returned error: %v", err)
		}

		board, ok := result.Success.(leaderboarddomain.Leaderboard)
		if !ok {
			t.Fatalf("result.Success = %T, want Leaderboard", result.Success)
		}
		if board.Rows[0].User.Username != "bob" {
			t.Errorf("rows not sorted by total: first = %s", board.Rows[0].User.Username)
		}
	})

	t.Run("finished contest falls through to the settled record", func(t *testing.T) {
		repo := &fakeSettledRepo{
			GetSettledFunc: func(ctx context.Context, id uuid.UUID) (leaderboarddomain.Rows, error) {
				return leaderboarddomain.Rows{
					{User: alice, TotalScore: 10},
					{User: bob, TotalScore: 70},
				}, nil
			},
		}
		svc := newTestService(leaderboardcache.New(), repo, &fakeContestRepo{}, &fakeEventBus{})

		result, err := svc.GetLeaderboard(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetLeaderboard returned error: %v", err)
		}

		board := result.Success.(leaderboarddomain.Leaderboard)
		if board.ContestID != contestID {
			t.Errorf("board.ContestID = %s, want %s", board.ContestID, contestID)
		}
		if board.Rows[0].User.Username != "bob" {
			t.Errorf("settled rows not sorted: first = %s", board.Rows[0].User.Username)
		}
	})

	t.Run("unknown contest is a business failure, not an error", func(t *testing.T) {
		svc := newTestService(leaderboardcache.New(), &fakeSettledRepo{}, &fakeContestRepo{}, &fakeEventBus{})

		result, err := svc.GetLeaderboard(context.Background(), contestID)
		if err != nil {
			t.Fatalf("GetLeaderboard returned error: %v", err)
		}
		if _, ok := result.Failure.(LeaderboardUnavailable); !ok {
			t.Fatalf("result.Failure = %T, want LeaderboardUnavailable", result.Failure)
		}
	})

	t.Run("storage fault surfaces as an error", func(t *testing.T) {
		repo := &fakeSettledRepo{
			GetSettledFunc: func(ctx context.Context, id uuid.UUID) (leaderboarddomain.Rows, error) {
				return nil, errors.New("connection reset")
			},
		}
		svc := newTestService(leaderboardcache.New(), repo, &fakeContestRepo{}, &fakeEventBus{})

		if _, err := svc.GetLeaderboard(context.Background(), contestID); err == nil {
			t.Fatal("expected an error for a storage fault")
		}
	})
}
