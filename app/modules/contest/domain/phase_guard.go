package contestdomain

import (
	"fmt"
	"time"
)

// PhaseWindow names the slice of the contest timeline an operation is allowed
// in. Handlers call CheckPhase explicitly at the top of each guarded
// operation.
type PhaseWindow int

const (
	AnyPhase PhaseWindow = iota
	BeforeStart
	DuringContest
	AfterEnd
)

func (w PhaseWindow) String() string {
	switch w {
	case AnyPhase:
		return "any"
	case BeforeStart:
		return "before_start"
	case DuringContest:
		return "during_contest"
	case AfterEnd:
		return "after_end"
	default:
		return "unknown"
	}
}

// CheckPhase reports whether the contest is inside the required window at the
// given instant. The persisted phase is authoritative; wall-clock time only
// breaks ties when a transition job has not fired yet.
func CheckPhase(c *Contest, window PhaseWindow, now time.Time) error {
	switch window {
	case AnyPhase:
		return nil
	case BeforeStart:
		if c.Phase == PhaseUpcoming && now.Before(c.StartTime) {
			return nil
		}
	case DuringContest:
		if c.Phase == PhaseOngoing {
			return nil
		}
	case AfterEnd:
		if c.Phase == PhaseFinished {
			return nil
		}
	}
	return fmt.Errorf("contest %s is in phase %s, operation requires window %s", c.ID, c.Phase, window)
}
