package contestqueue

import (
	"github.com/google/uuid"
)

// ContestStartJob fires the UPCOMING -> ONGOING transition at start time.
type ContestStartJob struct {
	ContestID uuid.UUID `json:"contest_id"`
}

// Kind returns the job type identifier for River
func (ContestStartJob) Kind() string { return "contest_start" }

// ContestFinishJob fires the ONGOING -> FINISHED transition at end time.
type ContestFinishJob struct {
	ContestID uuid.UUID `json:"contest_id"`
}

// Kind returns the job type identifier for River
func (ContestFinishJob) Kind() string { return "contest_finish" }

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	ContestID   string `json:"contest_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
