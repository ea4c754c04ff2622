package contestservice

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	contestcache "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/cache"
	contestqueue "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/queue"
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
	"github.com/code-arena-club/arena-backend/internal/metrics"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// ------------------------
// Fake contest repo
// ------------------------

type fakeContestRepo struct {
	CreateContestFunc   func(ctx context.Context, contest *contestdomain.Contest) error
	GetContestFunc      func(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error)
	TransitionPhaseFunc func(ctx context.Context, contestID uuid.UUID, from, to contestdomain.Phase) (bool, error)

	created []*contestdomain.Contest
}

func (f *fakeContestRepo) CreateContest(ctx context.Context, contest *contestdomain.Contest) error {
	f.created = append(f.created, contest)
	if f.CreateContestFunc != nil {
		return f.CreateContestFunc(ctx, contest)
	}
	return nil
}

func (f *fakeContestRepo) GetContest(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error) {
	if f.GetContestFunc != nil {
		return f.GetContestFunc(ctx, contestID)
	}
	return nil, contestdb.ErrContestNotFound
}

func (f *fakeContestRepo) ListUpcoming(ctx context.Context, after time.Time) ([]*contestdomain.Contest, error) {
	return nil, nil
}

func (f *fakeContestRepo) ListOngoing(ctx context.Context) ([]*contestdomain.Contest, error) {
	return nil, nil
}

func (f *fakeContestRepo) TransitionPhase(ctx context.Context, contestID uuid.UUID, from, to contestdomain.Phase) (bool, error) {
	if f.TransitionPhaseFunc != nil {
		return f.TransitionPhaseFunc(ctx, contestID, from, to)
	}
	return true, nil
}

func (f *fakeContestRepo) UpdateLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) error {
	return nil
}

var _ contestdb.Repository = (*fakeContestRepo)(nil)

// ------------------------
// Fake hot cache
// ------------------------

type fakeHotCache struct {
	GetFunc func(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error)
	SetFunc func(ctx context.Context, contest *contestdomain.Contest, ttl time.Duration) error

	setCalls    int
	deleteCalls int
	lastTTL     time.Duration
}

func (f *fakeHotCache) Get(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, contestID)
	}
	return nil, contestcache.ErrCacheMiss
}

func (f *fakeHotCache) Set(ctx context.Context, contest *contestdomain.Contest, ttl time.Duration) error {
	f.setCalls++
	f.lastTTL = ttl
	if f.SetFunc != nil {
		return f.SetFunc(ctx, contest, ttl)
	}
	return nil
}

func (f *fakeHotCache) Delete(ctx context.Context, contestID uuid.UUID) error {
	f.deleteCalls++
	return nil
}

func (f *fakeHotCache) Ping(ctx context.Context) error { return nil }

var _ contestcache.ContestCache = (*fakeHotCache)(nil)

// ------------------------
// Fake leaderboard service
// ------------------------

type fakeLeaderboard struct {
	InitLiveFunc func(ctx context.Context, contest *contestdomain.Contest) error
	SettleFunc   func(ctx context.Context, contest *contestdomain.Contest) error

	initCalls   int
	settleCalls int
}

func (f *fakeLeaderboard) ApplyScore(ctx context.Context, contestID, userID uuid.UUID, problemKey string, problemID uuid.UUID, score int) (results.OperationResult, error) {
	return results.OperationResult{}, nil
}

func (f *fakeLeaderboard) GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	return results.OperationResult{}, nil
}

func (f *fakeLeaderboard) SetLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) (results.OperationResult, error) {
	return results.OperationResult{}, nil
}

func (f *fakeLeaderboard) InitLive(ctx context.Context, contest *contestdomain.Contest) error {
	f.initCalls++
	if f.InitLiveFunc != nil {
		return f.InitLiveFunc(ctx, contest)
	}
	return nil
}

func (f *fakeLeaderboard) Settle(ctx context.Context, contest *contestdomain.Contest) error {
	f.settleCalls++
	if f.SettleFunc != nil {
		return f.SettleFunc(ctx, contest)
	}
	return nil
}

var _ leaderboardservice.Service = (*fakeLeaderboard)(nil)

// ------------------------
// Fake phase scheduler
// ------------------------

type fakeScheduler struct {
	ScheduleStartFunc  func(ctx context.Context, contest *contestdomain.Contest) error
	ScheduleFinishFunc func(ctx context.Context, contest *contestdomain.Contest) error

	startScheduled  []*contestdomain.Contest
	finishScheduled []*contestdomain.Contest
}

func (f *fakeScheduler) ScheduleStart(ctx context.Context, contest *contestdomain.Contest) error {
	f.startScheduled = append(f.startScheduled, contest)
	if f.ScheduleStartFunc != nil {
		return f.ScheduleStartFunc(ctx, contest)
	}
	return nil
}

func (f *fakeScheduler) ScheduleFinish(ctx context.Context, contest *contestdomain.Contest) error {
	f.finishScheduled = append(f.finishScheduled, contest)
	if f.ScheduleFinishFunc != nil {
		return f.ScheduleFinishFunc(ctx, contest)
	}
	return nil
}

func (f *fakeScheduler) CancelContestJobs(ctx context.Context, contestID uuid.UUID) error {
	return nil
}

func (f *fakeScheduler) GetScheduledJobs(ctx context.Context, contestID uuid.UUID) ([]contestqueue.JobInfo, error) {
	return nil, nil
}

func (f *fakeScheduler) ReconcileOnStartup(ctx context.Context) error { return nil }

func (f *fakeScheduler) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeScheduler) Start(ctx context.Context) error { return nil }

func (f *fakeScheduler) Stop(ctx context.Context) error { return nil }

var _ contestqueue.QueueService = (*fakeScheduler)(nil)

// ------------------------
// Fake event bus
// ------------------------

type publishedEvent struct {
	topic   string
	payload []byte
}

type fakeEventBus struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (f *fakeEventBus) Publish(topic string, messages ...*message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range messages {
		f.published = append(f.published, publishedEvent{topic: topic, payload: msg.Payload})
	}
	return nil
}

func (f *fakeEventBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nil, nil
}

func (f *fakeEventBus) CreateStream(ctx context.Context, streamName string, subjects ...string) error {
	return nil
}

func (f *fakeEventBus) Close() error { return nil }

func (f *fakeEventBus) topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.topic)
	}
	return out
}

func (f *fakeEventBus) decodeLast(t *testing.T, topic string, v any) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].topic == topic {
			if err := json.Unmarshal(f.published[i].payload, v); err != nil {
				t.Fatalf("failed to unmarshal event on %s: %v", topic, err)
			}
			return
		}
	}
	t.Fatalf("no event published on topic %s", topic)
}

var _ eventbus.EventBus = (*fakeEventBus)(nil)

// ------------------------
// Service under test
// ------------------------

func newTestContestService(repo *fakeContestRepo, hotCache *fakeHotCache, leaderboard *fakeLeaderboard, bus *fakeEventBus, scheduler *fakeScheduler) *ContestService {
	svc := &ContestService{
		repo:        repo,
		hotCache:    hotCache,
		leaderboard: leaderboard,
		eventBus:    bus,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:     metrics.NewNoop(),
		tracer:      noop.NewTracerProvider().Tracer("test"),
	}
	if scheduler != nil {
		svc.SetScheduler(scheduler)
	}
	return svc
}
