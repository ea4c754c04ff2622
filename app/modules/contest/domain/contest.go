package contestdomain

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the scheduler-driven lifecycle stage of a contest.
type Phase string

const (
	PhaseUpcoming Phase = "UPCOMING"
	PhaseOngoing  Phase = "ONGOING"
	PhaseFinished Phase = "FINISHED"
)

// Order gives phases a total order so workers can detect transitions that
// already happened. Unknown phases sort before UPCOMING.
func (p Phase) Order() int {
	switch p {
	case PhaseUpcoming:
		return 1
	case PhaseOngoing:
		return 2
	case PhaseFinished:
		return 3
	default:
		return 0
	}
}

// AtOrPast reports whether p is at or beyond target in the lifecycle.
func (p Phase) AtOrPast(target Phase) bool {
	return p.Order() >= target.Order()
}

// LeaderboardStatus is the owner-controlled visibility gate. It is orthogonal
// to Phase: only the owner changes it, never the scheduler.
type LeaderboardStatus string

const (
	LeaderboardOpen   LeaderboardStatus = "OPEN"
	LeaderboardFrozen LeaderboardStatus = "FROZEN"
	LeaderboardClosed LeaderboardStatus = "CLOSED"
)

// Valid reports whether s is one of the known status values.
func (s LeaderboardStatus) Valid() bool {
	switch s {
	case LeaderboardOpen, LeaderboardFrozen, LeaderboardClosed:
		return true
	}
	return false
}

// RegistrationStatus tracks a user's standing on a contest roster.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// UserRef identifies a registrant as persisted on the settled leaderboard.
type UserRef struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// ProblemRef is an ordered problem slot within a contest. Key is the short
// display label ("A", "B", ...), ID the durable problem identity.
type ProblemRef struct {
	Key string    `json:"key"`
	ID  uuid.UUID `json:"id"`
}

// Registration pairs a user with their roster status.
type Registration struct {
	User   UserRef            `json:"user"`
	Status RegistrationStatus `json:"status"`
}

// Contest is the fully materialized contest document: the shape held in the
// hot-cache while the contest is ONGOING.
type Contest struct {
	ID                uuid.UUID         `json:"id"`
	Title             string            `json:"title"`
	OwnerID           uuid.UUID         `json:"owner_id"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	Phase             Phase             `json:"phase"`
	Visible           bool              `json:"visible"`
	LeaderboardStatus LeaderboardStatus `json:"leaderboard_status"`
	Problems          []ProblemRef      `json:"problems"`
	Registrations     []Registration    `json:"registrations"`
}

// ApprovedRoster returns the users whose registration was approved, in
// registration order.
func (c *Contest) ApprovedRoster() []UserRef {
	roster := make([]UserRef, 0, len(c.Registrations))
	for _, reg := range c.Registrations {
		if reg.Status == RegistrationApproved {
			roster = append(roster, reg.User)
		}
	}
	return roster
}

// Duration returns the scheduled contest length.
func (c *Contest) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// HotCacheTTL is the hot-cache expiry for this contest: the contest duration
// plus slack, never below a floor, so a missed finish transition cannot leave
// the document resident forever.
func (c *Contest) HotCacheTTL() time.Duration {
	ttl := c.Duration() + time.Hour
	if ttl < 2*time.Hour {
		ttl = 2 * time.Hour
	}
	return ttl
}
