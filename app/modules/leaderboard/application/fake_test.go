package leaderboardservice

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
	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	leaderboardcache "github.com/code-arena-club/arena-backend/app/modules/leaderboard/cache"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	leaderboarddb "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/internal/eventbus"
	"github.com/code-arena-club/arena-backend/internal/metrics"
)

// ------------------------
// Fake contest repo
// ------------------------

type fakeContestRepo struct {
	GetContestFunc              func(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error)
	UpdateLeaderboardStatusFunc func(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) error
}

func (f *fakeContestRepo) CreateContest(ctx context.Context, contest *contestdomain.Contest) error {
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
	return false, nil
}

func (f *fakeContestRepo) UpdateLeaderboardStatus(ctx context.Context, contestID uuid.UUID, status contestdomain.LeaderboardStatus) error {
	if f.UpdateLeaderboardStatusFunc != nil {
		return f.UpdateLeaderboardStatusFunc(ctx, contestID, status)
	}
	return nil
}

var _ contestdb.Repository = (*fakeContestRepo)(nil)

// ------------------------
// Fake settled leaderboard repo
// ------------------------

type fakeSettledRepo struct {
	PersistSettledFunc func(ctx context.Context, contestID uuid.UUID, rows leaderboarddomain.Rows) error
	GetSettledFunc     func(ctx context.Context, contestID uuid.UUID) (leaderboarddomain.Rows, error)

	persistCalls int
	lastPersist  leaderboarddomain.Rows
}

func (f *fakeSettledRepo) PersistSettled(ctx context.Context, contestID uuid.UUID, rows leaderboarddomain.Rows) error {
	f.persistCalls++
	f.lastPersist = rows
	if f.PersistSettledFunc != nil {
		return f.PersistSettledFunc(ctx, contestID, rows)
	}
	return nil
}

func (f *fakeSettledRepo) GetSettled(ctx context.Context, contestID uuid.UUID) (leaderboarddomain.Rows, error) {
	if f.GetSettledFunc != nil {
		return f.GetSettledFunc(ctx, contestID)
	}
	return nil, leaderboarddb.ErrLeaderboardNotFound
}

var _ leaderboarddb.Repository = (*fakeSettledRepo)(nil)

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

	PublishFunc func(topic string, messages ...*message.Message) error
}

func (f *fakeEventBus) Publish(topic string, messages ...*message.Message) error {
	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
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

// decodeLast unmarshals the most recent event on the given topic into v.
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

func newTestService(cache *leaderboardcache.Cache, repo *fakeSettledRepo, contests *fakeContestRepo, bus *fakeEventBus) *LeaderboardService {
	return &LeaderboardService{
		cache:    cache,
		repo:     repo,
		contests: contests,
		eventBus: bus,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:  metrics.NewNoop(),
		tracer:   noop.NewTracerProvider().Tracer("test"),
	}
}
