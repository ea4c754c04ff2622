package contestcache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	contestdomain "github.com/code-arena-club/arena-backend/app/modules/contest/domain"
)

// ErrCacheMiss is returned when no entry exists for the requested contest.
// Callers fall back to the durable contest record on miss; the cache is never
// authoritative.
var ErrCacheMiss = errors.New("contest not in hot cache")

// ContestCache holds the fully materialized contest document for the duration
// a contest is ONGOING.
type ContestCache interface {
	Get(ctx context.Context, contestID uuid.UUID) (*contestdomain.Contest, error)
	Set(ctx context.Context, contest *contestdomain.Contest, ttl time.Duration) error
	Delete(ctx context.Context, contestID uuid.UUID) error
	Ping(ctx context.Context) error
}
