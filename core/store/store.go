package store

import (
	"context"
	"time"

	"github.com/upnepa/gridlog/core/model"
)

// EventStore persists the append-only power event stream. Implementations
// must provide atomic single-row appends; the core performs no locking of
// its own.
type EventStore interface {
	// Append persists a single event.
	Append(ctx context.Context, ev model.PowerEvent) error
	// AppendBatch persists all events in one transaction.
	AppendBatch(ctx context.Context, evs []model.PowerEvent) error
	// ListByUser returns a user's events ordered by ascending timestamp.
	// Zero from/to values leave that bound open.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]model.PowerEvent, error)
	// Recent returns up to limit events ordered by descending timestamp.
	Recent(ctx context.Context, userID string, limit int) ([]model.PowerEvent, error)
	// Latest returns the most recent event, or nil when the user has none.
	Latest(ctx context.Context, userID string) (*model.PowerEvent, error)
}

// RegionCatalog exposes the seeded region profiles. The core only reads it.
type RegionCatalog interface {
	List(ctx context.Context) ([]model.RegionProfile, error)
	Get(ctx context.Context, id string) (*model.RegionProfile, error)
}

// UserDirectory exposes registered accounts and their region assignment.
type UserDirectory interface {
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, username string) (*model.User, error)
	UsersByRegion(ctx context.Context, regionID string) ([]model.User, error)
}
