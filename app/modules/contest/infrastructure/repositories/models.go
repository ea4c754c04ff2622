package contestdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// Contest is the persisted contest document. Problems and registrations are
// stored as jsonb so the materialized document round-trips without joins.
type Contest struct {
	bun.BaseModel `bun:"table:contests,alias:c"`

	ID                uuid.UUID                       `bun:"id,pk,type:uuid"`
	Title             string                          `bun:"title,notnull"`
	OwnerID           uuid.UUID                       `bun:"owner_id,type:uuid,notnull"`
	StartTime         time.Time                       `bun:"start_time,notnull"`
	EndTime           time.Time                       `bun:"end_time,notnull"`
	Phase             contestdomain.Phase             `bun:"phase,notnull,default:'UPCOMING'"`
	Visible           bool                            `bun:"visible,notnull,default:true"`
	LeaderboardStatus contestdomain.LeaderboardStatus `bun:"leaderboard_status,notnull,default:'OPEN'"`
	Problems          []contestdomain.ProblemRef      `bun:"problems,type:jsonb"`
	Registrations     []contestdomain.Registration    `bun:"registrations,type:jsonb"`
	CreatedAt         time.Time                       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time                       `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *Contest) toDomain() *contestdomain.Contest {
	return &contestdomain.Contest{
		ID:                m.ID,
		Title:             m.Title,
		OwnerID:           m.OwnerID,
		StartTime:         m.StartTime,
		EndTime:           m.EndTime,
		Phase:             m.Phase,
		Visible:           m.Visible,
		LeaderboardStatus: m.LeaderboardStatus,
		Problems:          m.Problems,
		Registrations:     m.Registrations,
	}
}

func fromDomain(c *contestdomain.Contest) *Contest {
	return &Contest{
		ID:                c.ID,
		Title:             c.Title,
		OwnerID:           c.OwnerID,
		StartTime:         c.StartTime,
		EndTime:           c.EndTime,
		Phase:             c.Phase,
		Visible:           c.Visible,
		LeaderboardStatus: c.LeaderboardStatus,
		Problems:          c.Problems,
		Registrations:     c.Registrations,
	}
}
