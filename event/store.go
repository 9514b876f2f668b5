package event

import (
	"context"
	"time"

	"github.com/meshchat/roomlog/id"
)

// Store is the append-log engine contract: the raw create/update/flag/query
// primitives every room operation is built on. Adapters live under store/.
type Store interface {
	// AddEvent persists a built event inside the given scope. Appending a
	// live message event whose client id is already taken within the room
	// returns ErrDuplicateClientID.
	AddEvent(ctx context.Context, q ContextQuery, evt *Event) (*AddResult, error)

	// UpdateEventData merges a payload patch into the event located by
	// scope, type, and client id, and stamps _updatedAt. An empty client
	// id locates only uncorrelated events. Returns ErrNotFound when no
	// live event matches.
	UpdateEventData(ctx context.Context, q ContextQuery, t Type, clientID string, patch Update) error

	// FlagEventDeleted stamps _deletedAt on the event located by scope,
	// type, and client id. Idempotent: an already-deleted event keeps its
	// original stamp and the call succeeds. Returns ErrNotFound when no
	// event matches at all.
	FlagEventDeleted(ctx context.Context, q ContextQuery, t Type, clientID string, at time.Time) error

	// FindEvents returns the scoped events satisfying the filter, ordered
	// by ts ascending. The scope is merged conjunctively with the filter.
	FindEvents(ctx context.Context, q ContextQuery, filter Filter) ([]*Event, error)

	// RedactEvent applies a redaction to one event by store id as a single
	// atomic document update.
	RedactEvent(ctx context.Context, evtID id.ID, r Redaction) error

	// Migrate performs one-time store initialization (index declarations).
	// Invoked explicitly by the hosting process, never as a constructor
	// side effect. "Already exists" failures are logged and tolerated.
	Migrate(ctx context.Context) error

	// Ping checks store connectivity.
	Ping(ctx context.Context) error

	// Close releases the store connection.
	Close() error
}
