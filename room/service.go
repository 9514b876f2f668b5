// Package room implements the room-scoped event store: typed event
// constructors over the generic append-log engine, the prune engine, and
// the v1/v2 schema compatibility bridge.
package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/l10n"
	"github.com/meshchat/roomlog/observability"
)

// Config holds room service configuration.
type Config struct {
	// Source is the process-local default origin tag, applied when callers
	// pass an empty src.
	Source string

	// Localizer resolves user-visible strings written into payloads.
	Localizer l10n.Localizer

	// Validator, when set, checks payloads against per-type JSON Schemas
	// on every append.
	Validator *event.Validator

	// Metrics and Tracer are optional observability hooks.
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Service is the room event store. All operations delegate persistence to
// the append-log engine; the service holds no mutable state beyond its
// configuration.
type Service struct {
	store  event.Store
	config Config
	logger *slog.Logger
}

// NewService creates a room event store on top of an append-log engine.
func NewService(store event.Store, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Localizer == nil {
		cfg.Localizer = l10n.Default()
	}

	return &Service{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// EnsureSource returns src unchanged when non-empty, else the process-local
// default origin tag. Side-effect free.
func (s *Service) EnsureSource(src string) string {
	if src != "" {
		return src
	}

	return s.config.Source
}

// Append appends a pre-built event, scoped by the event's own room id.
func (s *Service) Append(ctx context.Context, evt *event.Event) (*event.AddResult, error) {
	q := evt.Context()
	if q.IsZero() {
		return nil, event.ErrRoomIDRequired
	}

	if evt.Type == "" {
		return nil, event.ErrTypeRequired
	}

	if s.config.Validator != nil {
		if err := s.config.Validator.Validate(evt); err != nil {
			return nil, fmt.Errorf("%w: %s", event.ErrPayloadInvalid, err.Error())
		}
	}

	res, err := s.store.AddEvent(ctx, q, evt)
	if err != nil {
		return nil, err
	}

	if s.config.Metrics != nil {
		s.config.Metrics.RecordAppend(string(evt.Type))
	}

	return res, nil
}

// UpdatePayload merges a data patch into the existing event located by
// room scope, event type, and client id.
func (s *Service) UpdatePayload(ctx context.Context, evt *event.Event, patch event.Update) error {
	q := evt.Context()
	if q.IsZero() {
		return event.ErrRoomIDRequired
	}

	if patch.IsZero() {
		return nil
	}

	return s.store.UpdateEventData(ctx, q, evt.Type, evt.ClientID, patch)
}

// MarkDeleted stamps the soft-delete time on the event located by room
// scope, event type, and client id. Idempotent: repeated calls succeed and
// keep the first deletion time.
func (s *Service) MarkDeleted(ctx context.Context, evt *event.Event) error {
	q := evt.Context()
	if q.IsZero() {
		return event.ErrRoomIDRequired
	}

	return s.store.FlagEventDeleted(ctx, q, evt.Type, evt.ClientID, time.Now().UTC())
}

// CreateGenesisEvent creates the single room-creation event carrying a full
// snapshot of room state. A second call for the same room fails with
// event.ErrGenesisExists and writes nothing.
func (s *Service) CreateGenesisEvent(ctx context.Context, src, roomID string, snapshot event.Data) (*event.Event, error) {
	src = s.EnsureSource(src)

	q := event.Context(roomID)
	if q.IsZero() {
		return nil, event.ErrRoomIDRequired
	}

	existing, err := s.store.FindEvents(ctx, q, event.Filter{"t": string(event.TypeGenesis)})
	if err != nil {
		return nil, fmt.Errorf("find genesis event: %w", err)
	}

	if len(existing) > 0 {
		return nil, event.ErrGenesisExists
	}

	evt := event.New(src, q, event.Stub{
		Type: event.TypeGenesis,
		Data: event.Data{event.KeyRoom: snapshot},
	})

	if _, err := s.Append(ctx, evt); err != nil {
		return nil, err
	}

	return evt, nil
}

// CreateMessageEvent creates a message event correlated by client id.
func (s *Service) CreateMessageEvent(ctx context.Context, src, roomID, clientID string, d event.Data) (*event.Event, error) {
	src = s.EnsureSource(src)

	stub := event.Stub{
		ClientID: clientID,
		Type:     event.TypeMessage,
		Data:     d,
	}

	return s.createEvent(ctx, src, event.Context(roomID), stub)
}

// CreateEditMessageEvent creates an edit event carrying a data patch for
// the message identified by client id.
func (s *Service) CreateEditMessageEvent(ctx context.Context, src, roomID, clientID string, patch event.Data) (*event.Event, error) {
	src = s.EnsureSource(src)

	stub := event.Stub{
		ClientID: clientID,
		Type:     event.TypeEditMessage,
		Data:     patch,
	}

	return s.createEvent(ctx, src, event.Context(roomID), stub)
}

// CreateDeleteMessageEvent creates a delete marker. The client id is
// optional; without one the event is a standalone delete marker rather than
// a correlated edit of a prior message.
func (s *Service) CreateDeleteMessageEvent(ctx context.Context, src, roomID, clientID string) (*event.Event, error) {
	src = s.EnsureSource(src)

	stub := event.Stub{
		ClientID: clientID,
		Type:     event.TypeDeleteMessage,
		Data:     event.Data{},
	}

	return s.createEvent(ctx, src, event.Context(roomID), stub)
}

// CreateDeleteRoomEvent creates the room-deletion event.
func (s *Service) CreateDeleteRoomEvent(ctx context.Context, src, roomID string) (*event.Event, error) {
	src = s.EnsureSource(src)

	stub := event.Stub{
		Type: event.TypeDeleteRoom,
		Data: event.Data{},
	}

	return s.createEvent(ctx, src, event.Context(roomID), stub)
}

// createEvent builds a typed stub into an event and appends it.
func (s *Service) createEvent(ctx context.Context, src string, q event.ContextQuery, stub event.Stub) (*event.Event, error) {
	if q.IsZero() {
		return nil, event.ErrRoomIDRequired
	}

	evt := event.New(src, q, stub)

	if _, err := s.Append(ctx, evt); err != nil {
		return nil, err
	}

	return evt, nil
}
