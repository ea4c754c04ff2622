package contestevents

import (
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// ContestStreamName is the JetStream stream carrying contest lifecycle
// subjects.
const ContestStreamName = "contest"

// Contest lifecycle subjects.
const (
	ContestCreatedV1      = "contest.created.v1"
	ContestPhaseChangedV1 = "contest.phase.changed.v1"
)

// CreatedPayload announces a newly created contest.
type CreatedPayload struct {
	ContestID uuid.UUID `json:"contest_id"`
	Title     string    `json:"title"`
	OwnerID   uuid.UUID `json:"owner_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// PhaseChangedPayload announces a phase transition.
type PhaseChangedPayload struct {
	ContestID uuid.UUID           `json:"contest_id"`
	From      contestdomain.Phase `json:"from"`
	To        contestdomain.Phase `json:"to"`
}
