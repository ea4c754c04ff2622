// Package leaderboardcache holds the live, mutable leaderboard for every
// ONGOING contest. Updates for the same user are serialized on a per-row
// mutex; updates for different users proceed without contention.
package leaderboardcache

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// ErrContestNotTracked is returned when no live leaderboard exists for the
// contest (not ONGOING, or cache cold after a restart).
var ErrContestNotTracked = errors.New("no live leaderboard for contest")

type rowSlot struct {
	mu  sync.Mutex
	row leaderboarddomain.Row
}

type contestEntry struct {
	mu    sync.RWMutex
	order []uuid.UUID // insertion order, for stable snapshots
	rows  map[uuid.UUID]*rowSlot
}

// Cache is the in-memory live leaderboard store, keyed by contest id.
type Cache struct {
	mu       sync.RWMutex
	contests map[uuid.UUID]*contestEntry
}

// New constructs an empty cache. One instance is built at process start and
// injected wherever live leaderboards are read or written.
func New() *Cache {
	return &Cache{contests: make(map[uuid.UUID]*contestEntry)}
}

// Init registers a contest with one zero-score row per roster entry. Calling
// Init for an already-tracked contest replaces the previous state; the worker
// only does this on the UPCOMING to ONGOING transition.
func (c *Cache) Init(contestID uuid.UUID, rows leaderboarddomain.Rows) {
	entry := &contestEntry{rows: make(map[uuid.UUID]*rowSlot, len(rows))}
	for _, row := range rows {
		entry.order = append(entry.order, row.User.ID)
		entry.rows[row.User.ID] = &rowSlot{row: row.Clone()}
	}

	c.mu.Lock()
	c.contests[contestID] = entry
	c.mu.Unlock()
}

// Tracked reports whether a live leaderboard exists for the contest.
func (c *Cache) Tracked(contestID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.contests[contestID]
	return ok
}

// HasRow reports whether the user already has a row on the contest's live
// leaderboard.
func (c *Cache) HasRow(contestID, userID uuid.UUID) bool {
	c.mu.RLock()
	entry, ok := c.contests[contestID]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	_, ok = entry.rows[userID]
	return ok
}

// ApplyScore performs the atomic best-of upsert for one (user, problem) pair.
// A row is created on the fly when the user joined the roster after Init.
// Returns the updated row and whether the total changed.
func (c *Cache) ApplyScore(contestID uuid.UUID, user contestdomain.UserRef, problemKey string, problemID uuid.UUID, score int) (leaderboarddomain.Row, bool, error) {
	c.mu.RLock()
	entry, ok := c.contests[contestID]
	c.mu.RUnlock()
	if !ok {
		return leaderboarddomain.Row{}, false, ErrContestNotTracked
	}

	slot := entry.slotFor(user)

	slot.mu.Lock()
	improved := slot.row.ApplyBest(problemKey, problemID, score)
	updated := slot.row.Clone()
	slot.mu.Unlock()

	return updated, improved, nil
}

// slotFor finds the user's row slot, creating it under the write lock when
// missing.
func (e *contestEntry) slotFor(user contestdomain.UserRef) *rowSlot {
	e.mu.RLock()
	slot, ok := e.rows[user.ID]
	e.mu.RUnlock()
	if ok {
		return slot
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if slot, ok = e.rows[user.ID]; ok {
		return slot
	}
	slot = &rowSlot{row: leaderboarddomain.NewRow(user)}
	e.order = append(e.order, user.ID)
	e.rows[user.ID] = slot
	return slot
}

// Snapshot returns a deep copy of the contest's current rows in insertion
// order.
func (c *Cache) Snapshot(contestID uuid.UUID) (leaderboarddomain.Rows, error) {
	c.mu.RLock()
	entry, ok := c.contests[contestID]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrContestNotTracked
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()

	rows := make(leaderboarddomain.Rows, 0, len(entry.order))
	for _, userID := range entry.order {
		slot := entry.rows[userID]
		slot.mu.Lock()
		rows = append(rows, slot.row.Clone())
		slot.mu.Unlock()
	}
	return rows, nil
}

// Delete drops the contest's live leaderboard. Called after the settled copy
// is durably persisted, never before.
func (c *Cache) Delete(contestID uuid.UUID) {
	c.mu.Lock()
	delete(c.contests, contestID)
	c.mu.Unlock()
}
