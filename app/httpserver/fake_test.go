package httpserver

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/code-arena-club/arena-backend/app/modules/broadcast"
	contestservice "github.com/code-arena-club/arena-backend/app/modules/contest/application"
	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	"github.com/code-arena-club/arena-backend/internal/results"
	"github.com/code-arena-club/arena-backend/pkg/jwt"
)

type fakeContestService struct {
	CreateContestFunc func(ctx context.Context, input contestservice.CreateContestInput) (results.OperationResult, error)
	GetContestFunc    func(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)
}

var _ contestservice.Service = (*fakeContestService)(nil)

func (f *fakeContestService) CreateContest(ctx context.Context, input contestservice.CreateContestInput) (results.OperationResult, error) {
	if f.CreateContestFunc != nil {
		return f.CreateContestFunc(ctx, input)
	}
	return results.OperationResult{}, nil
}

func (f *fakeContestService) GetContest(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	if f.GetContestFunc != nil {
		return f.GetContestFunc(ctx, contestID)
	}
	return results.Fail("contest not found"), nil
}

func (f *fakeContestService) StartContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, bool, error) {
	return nil, false, nil
}

func (f *fakeContestService) FinishContest(ctx context.Context, contestID uuid.UUID) error {
	return nil
}

type fakeLeaderboardService struct {
	ApplyScoreFunc           func(ctx context.Context, contestID, userID uuid.UUID, problemKey string, problemID uuid.UUID, score int) (results.OperationResult, error)
	GetLeaderboardFunc       func(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)
	SetLeaderboardStatusFunc func(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) (results.OperationResult, error)
}

var _ leaderboardservice.Service = (*fakeLeaderboardService)(nil)

func (f *fakeLeaderboardService) ApplyScore(ctx context.Context, contestID, userID uuid.UUID, problemKey string, problemID uuid.UUID, score int) (results.OperationResult, error) {
	if f.ApplyScoreFunc != nil {
		return f.ApplyScoreFunc(ctx, contestID, userID, problemKey, problemID, score)
	}
	return results.OperationResult{}, nil
}

func (f *fakeLeaderboardService) GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx, contestID)
	}
	return results.Fail("leaderboard unavailable"), nil
}

func (f *fakeLeaderboardService) SetLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) (results.OperationResult, error) {
	if f.SetLeaderboardStatusFunc != nil {
		return f.SetLeaderboardStatusFunc(ctx, contestID, status)
	}
	return results.OperationResult{}, nil
}

func (f *fakeLeaderboardService) InitLive(ctx context.Context, contest *contestdomain.Contest) error {
	return nil
}

func (f *fakeLeaderboardService) Settle(ctx context.Context, contest *contestdomain.Contest) error {
	return nil
}

func newTestServer(contests *fakeContestService, leaderboard *fakeLeaderboardService) (*Server, jwt.Service) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService := jwt.NewService("test-secret", time.Hour)
	hub := broadcast.NewHub(leaderboard, logger)
	return NewServer(":0", logger, contests, leaderboard, hub, jwtService, nil), jwtService
}
