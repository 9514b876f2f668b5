package roomlog

import (
	"context"

	"github.com/meshchat/roomlog/room"
)

// wireServices initializes the internal services after options have been
// applied.
func (l *Log) wireServices() {
	l.rooms = room.NewService(l.store, room.Config{
		Source:    l.config.Source,
		Localizer: l.localizer,
		Validator: l.validator,
		Metrics:   l.metrics,
		Tracer:    l.tracer,
	}, l.logger)
}

// Rooms returns the room event store.
func (l *Log) Rooms() *room.Service {
	return l.rooms
}

// Migrate runs the store's one-time initialization (index declarations).
func (l *Log) Migrate(ctx context.Context) error {
	return l.store.Migrate(ctx)
}

// Ping checks store connectivity.
func (l *Log) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// Close closes the underlying store.
func (l *Log) Close() error {
	return l.store.Close()
}
