package broadcast

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	"github.com/code-arena-club/arena-backend/internal/results"
)

type fakeSnapshotFetcher struct {
	GetLeaderboardFunc func(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)
}

func (f *fakeSnapshotFetcher) GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error) {
	if f.GetLeaderboardFunc != nil {
		return f.GetLeaderboardFunc(ctx, contestID)
	}
	return results.OperationResult{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub_SubscribeDeliversSnapshotFirst(t *testing.T) {
	contestID := uuid.New()
	board := leaderboarddomain.Leaderboard{
		ContestID: contestID,
		Rows: leaderboarddomain.Rows{
			{User: contestdomain.UserRef{Username: "alice"}, TotalScore: 30},
		},
	}
	snapshots := &fakeSnapshotFetcher{
		GetLeaderboardFunc: func(ctx context.Context, id uuid.UUID) (results.OperationResult, error) {
			return results.OK(board), nil
		},
	}
	hub := NewHub(snapshots, testLogger())

	sub := hub.Subscribe(context.Background(), contestID)
	defer sub.Close()

	event := <-sub.C
	if event.Type != EventTypeSnapshot {
		t.Fatalf("first event type = %s, want snapshot", event.Type)
	}
	got, ok := event.Data.(leaderboarddomain.Leaderboard)
	if !ok || len(got.Rows) != 1 {
		t.Fatalf("snapshot data = %+v", event.Data)
	}
}

func TestHub_SubscribeWithoutLeaderboardGetsEmptySnapshot(t *testing.T) {
	contestID := uuid.New()
	snapshots := &fakeSnapshotFetcher{
		GetLeaderboardFunc: func(ctx context.Context, id uuid.UUID) (results.OperationResult, error) {
			return results.Fail("no leaderboard"), nil
		},
	}
	hub := NewHub(snapshots, testLogger())

	sub := hub.Subscribe(context.Background(), contestID)
	defer sub.Close()

	event := <-sub.C
	if event.Type != EventTypeSnapshot {
		t.Fatalf("first event type = %s, want snapshot", event.Type)
	}
	board := event.Data.(leaderboarddomain.Leaderboard)
	if board.ContestID != contestID || len(board.Rows) != 0 {
		t.Errorf("empty snapshot = %+v", board)
	}
}

func TestHub_PublishReachesOnlyTheContestGroup(t *testing.T) {
	hub := NewHub(&fakeSnapshotFetcher{}, testLogger())
	contestA := uuid.New()
	contestB := uuid.New()

	subA := hub.Subscribe(context.Background(), contestA)
	defer subA.Close()
	subB := hub.Subscribe(context.Background(), contestB)
	defer subB.Close()
	<-subA.C // drain snapshots
	<-subB.C

	row := leaderboarddomain.Row{User: contestdomain.UserRef{Username: "alice"}, TotalScore: 70}
	hub.PublishRow(contestA, row)

	event := <-subA.C
	if event.Type != EventTypeRowUpdated {
		t.Fatalf("event type = %s, want row update", event.Type)
	}
	if got := event.Data.(leaderboarddomain.Row); got.TotalScore != 70 {
		t.Errorf("row = %+v", got)
	}

	select {
	case event := <-subB.C:
		t.Fatalf("contest B subscriber received foreign event %+v", event)
	default:
	}
}

func TestHub_StatusAndPhaseEvents(t *testing.T) {
	hub := NewHub(&fakeSnapshotFetcher{}, testLogger())
	contestID := uuid.New()

	sub := hub.Subscribe(context.Background(), contestID)
	defer sub.Close()
	<-sub.C

	hub.PublishStatus(contestID, contestdomain.LeaderboardFrozen)
	hub.PublishPhase(contestID, contestdomain.PhaseFinished)

	event := <-sub.C
	if event.Type != EventTypeStatusChanged || event.Data.(contestdomain.LeaderboardStatus) != contestdomain.LeaderboardFrozen {
		t.Errorf("status event = %+v", event)
	}
	event = <-sub.C
	if event.Type != EventTypePhaseChanged || event.Data.(contestdomain.Phase) != contestdomain.PhaseFinished {
		t.Errorf("phase event = %+v", event)
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(&fakeSnapshotFetcher{}, testLogger())
	contestID := uuid.New()

	sub := hub.Subscribe(context.Background(), contestID)
	defer sub.Close()
	// Leave the snapshot in place and overflow the buffer; dispatch must
	// return without blocking.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.PublishRow(contestID, leaderboarddomain.Row{TotalScore: i})
	}

	if got := len(sub.ch); got != subscriberBuffer {
		t.Errorf("buffered events = %d, want full buffer %d", got, subscriberBuffer)
	}
}

func TestHub_UnsubscribeRemovesEmptyGroups(t *testing.T) {
	hub := NewHub(&fakeSnapshotFetcher{}, testLogger())
	contestID := uuid.New()

	first := hub.Subscribe(context.Background(), contestID)
	second := hub.Subscribe(context.Background(), contestID)

	if got := hub.SubscriberCount(contestID); got != 2 {
		t.Fatalf("subscriber count = %d, want 2", got)
	}

	first.Close()
	if got := hub.SubscriberCount(contestID); got != 1 {
		t.Fatalf("subscriber count = %d, want 1", got)
	}

	second.Close()
	if got := hub.SubscriberCount(contestID); got != 0 {
		t.Fatalf("subscriber count = %d, want 0", got)
	}

	hub.mu.RLock()
	_, stillThere := hub.groups[contestID]
	hub.mu.RUnlock()
	if stillThere {
		t.Error("empty group not garbage collected")
	}
}
