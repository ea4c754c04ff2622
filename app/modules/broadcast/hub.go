package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/internal/results"
)

// Event types pushed over a subscription.
const (
	EventTypeSnapshot      = "leaderboard.snapshot"
	EventTypeRowUpdated    = "leaderboard.row"
	EventTypeStatusChanged = "leaderboard.status"
	EventTypePhaseChanged  = "contest.phase"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind loses events rather than blocking delivery to
// everyone else; the next snapshot resyncs it.
const subscriberBuffer = 16

// Event is the envelope pushed to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SnapshotFetcher supplies the current leaderboard for the
// snapshot-on-subscribe contract. The leaderboard service implements it.
type SnapshotFetcher interface {
	GetLeaderboard(ctx context.Context, contestID uuid.UUID) (results.OperationResult, error)
}

// Subscription is one client's membership in a contest channel.
type Subscription struct {
	ID        uuid.UUID
	ContestID uuid.UUID
	C         <-chan Event

	hub *Hub
	ch  chan Event
}

// Close removes the subscription from its contest channel. In-flight sends
// race harmlessly against removal; the channel itself is garbage collected
// with the subscription.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ContestID, s.ID)
}

type group struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]chan Event
}

// Hub fans leaderboard updates out to per-contest subscriber groups.
// Delivery is fire-and-forget: a slow subscriber drops events instead of
// blocking the rest of its group.
type Hub struct {
	mu        sync.RWMutex
	groups    map[uuid.UUID]*group
	snapshots SnapshotFetcher
	logger    *slog.Logger
}

// NewHub creates a broadcast hub.
func NewHub(snapshots SnapshotFetcher, logger *slog.Logger) *Hub {
	return &Hub{
		groups:    make(map[uuid.UUID]*group),
		snapshots: snapshots,
		logger:    logger,
	}
}

// Subscribe joins the contest channel and immediately receives the current
// leaderboard snapshot as the first event, so a newly-joined client is never
// indefinitely stale. Registration happens before the snapshot fetch: an
// update racing the subscribe may arrive ahead of the snapshot, which then
// supersedes it.
func (h *Hub) Subscribe(ctx context.Context, contestID uuid.UUID) *Subscription {
	g := h.groupFor(contestID)

	sub := &Subscription{
		ID:        uuid.New(),
		ContestID: contestID,
		hub:       h,
		ch:        make(chan Event, subscriberBuffer),
	}
	sub.C = sub.ch

	g.mu.Lock()
	g.subs[sub.ID] = sub.ch
	g.mu.Unlock()

	if h.snapshots != nil {
		result, err := h.snapshots.GetLeaderboard(ctx, contestID)
		switch {
		case err != nil:
			h.logger.WarnContext(ctx, "Failed to fetch snapshot for new subscriber",
				attr.ContestID("contest_id", contestID),
				attr.Error(err))
		case result.Success != nil:
			sub.ch <- Event{Type: EventTypeSnapshot, Data: result.Success}
		default:
			// No leaderboard yet (contest UPCOMING); the subscriber waits
			// for live events.
			sub.ch <- Event{Type: EventTypeSnapshot, Data: leaderboarddomain.Leaderboard{
				ContestID: contestID,
				Rows:      leaderboarddomain.Rows{},
			}}
		}
	}

	h.logger.DebugContext(ctx, "Subscriber joined contest channel",
		attr.ContestID("contest_id", contestID),
		attr.String("subscription_id", sub.ID.String()))
	return sub
}

// PublishRow pushes a single updated row to every subscriber of the contest.
// Status gating is a client concern; the hub never filters delivery.
func (h *Hub) PublishRow(contestID uuid.UUID, row leaderboarddomain.Row) {
	h.dispatch(contestID, Event{Type: EventTypeRowUpdated, Data: row})
}

// PublishStatus pushes an out-of-band leaderboard status change so connected
// clients reconcile their local gating immediately.
func (h *Hub) PublishStatus(contestID uuid.UUID, status contestdomain.LeaderboardStatus) {
	h.dispatch(contestID, Event{Type: EventTypeStatusChanged, Data: status})
}

// PublishPhase pushes a contest phase transition.
func (h *Hub) PublishPhase(contestID uuid.UUID, phase contestdomain.Phase) {
	h.dispatch(contestID, Event{Type: EventTypePhaseChanged, Data: phase})
}

// SubscriberCount reports the current size of a contest channel.
func (h *Hub) SubscriberCount(contestID uuid.UUID) int {
	h.mu.RLock()
	g, ok := h.groups[contestID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subs)
}

func (h *Hub) groupFor(contestID uuid.UUID) *group {
	h.mu.RLock()
	g, ok := h.groups[contestID]
	h.mu.RUnlock()
	if ok {
		return g
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if g, ok = h.groups[contestID]; ok {
		return g
	}
	g = &group{subs: make(map[uuid.UUID]chan Event)}
	h.groups[contestID] = g
	return g
}

func (h *Hub) dispatch(contestID uuid.UUID, event Event) {
	h.mu.RLock()
	g, ok := h.groups[contestID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, ch := range g.subs {
		select {
		case ch <- event:
		default:
			h.logger.Warn("Subscriber buffer full, dropping event",
				attr.ContestID("contest_id", contestID),
				attr.String("subscription_id", id.String()),
				attr.String("event_type", event.Type))
		}
	}
}

func (h *Hub) unsubscribe(contestID, subID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.groups[contestID]
	if !ok {
		return
	}
	g.mu.Lock()
	delete(g.subs, subID)
	empty := len(g.subs) == 0
	g.mu.Unlock()
	if empty {
		delete(h.groups, contestID)
	}
}
