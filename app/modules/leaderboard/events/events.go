package leaderboardevents

import (
	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// Stream name
const LeaderboardStreamName = "leaderboard"

// Leaderboard-related subjects
const (
	ScoreReceivedV1            = "leaderboard.score.received.v1"
	LeaderboardRowUpdatedV1    = "leaderboard.row.updated.v1"
	LeaderboardStatusChangedV1 = "leaderboard.status.changed.v1"
	LeaderboardSettledV1       = "leaderboard.settled.v1"
)

// ScoreReceivedPayload is the tuple the grading pipeline posts after each
// evaluated submission.
type ScoreReceivedPayload struct {
	ContestID  uuid.UUID `json:"contest_id"`
	UserID     uuid.UUID `json:"user_id"`
	ProblemKey string    `json:"problem_key"`
	ProblemID  uuid.UUID `json:"problem_id"`
	Score      int       `json:"score"`
}

// RowUpdatedPayload is broadcast when a best-of update changed a row's total.
type RowUpdatedPayload struct {
	ContestID uuid.UUID             `json:"contest_id"`
	Row       leaderboarddomain.Row `json:"row"`
}

// StatusChangedPayload is the out-of-band owner gate change, broadcast so
// connected clients reconcile their local gating immediately.
type StatusChangedPayload struct {
	ContestID uuid.UUID                       `json:"contest_id"`
	Status    contestdomain.LeaderboardStatus `json:"status"`
}

// SettledPayload announces that a contest's leaderboard was durably settled.
type SettledPayload struct {
	ContestID uuid.UUID `json:"contest_id"`
	RowCount  int       `json:"row_count"`
}
