// Package memory provides an in-memory append-log engine for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/id"
)

// compile-time interface check.
var _ event.Store = (*Store)(nil)

// Store is an in-memory implementation of event.Store for testing. It
// interprets the same filter subset as the Mongo adapter.
type Store struct {
	mu sync.RWMutex

	events map[string]*event.Event // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		events: make(map[string]*event.Event),
	}
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return event.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// AddEvent persists a built event inside the given scope.
func (s *Store) AddEvent(_ context.Context, q event.ContextQuery, evt *event.Event) (*event.AddResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, event.ErrStoreClosed
	}

	// Client id uniqueness holds among live message events of the room.
	if evt.Type == event.TypeMessage && evt.ClientID != "" {
		for _, existing := range s.events {
			if existing.RoomID == q.RoomID &&
				existing.Type == event.TypeMessage &&
				existing.ClientID == evt.ClientID &&
				!existing.IsDeleted() {
				return nil, event.ErrDuplicateClientID
			}
		}
	}

	s.events[evt.ID.String()] = cloneEvent(evt)

	return &event.AddResult{ID: evt.ID, Timestamp: evt.Timestamp}, nil
}

// UpdateEventData merges a payload patch into the matching live event.
func (s *Store) UpdateEventData(_ context.Context, q event.ContextQuery, t event.Type, clientID string, patch event.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return event.ErrStoreClosed
	}

	target := s.locate(q, t, clientID, false)
	if target == nil {
		return event.ErrNotFound
	}

	for k, v := range patch.Set {
		target.Data[k] = v
	}

	for _, k := range patch.Unset {
		delete(target.Data, k)
	}

	now := time.Now().UTC()
	target.UpdatedAt = &now

	return nil
}

// FlagEventDeleted stamps the soft-delete time on the matching event.
// Already-deleted events keep their original stamp.
func (s *Store) FlagEventDeleted(_ context.Context, q event.ContextQuery, t event.Type, clientID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return event.ErrStoreClosed
	}

	target := s.locate(q, t, clientID, true)
	if target == nil {
		return event.ErrNotFound
	}

	if target.IsDeleted() {
		return nil
	}

	stamp := at
	target.DeletedAt = &stamp

	return nil
}

// FindEvents returns scoped events matching the filter, ordered by ts.
func (s *Store) FindEvents(_ context.Context, q event.ContextQuery, filter event.Filter) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, event.ErrStoreClosed
	}

	var result []*event.Event

	for _, evt := range s.events {
		if evt.RoomID != q.RoomID {
			continue
		}

		if matchesFilter(evt, filter) {
			result = append(result, cloneEvent(evt))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID.String() < result[j].ID.String()
		}

		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result, nil
}

// RedactEvent applies a redaction to one event by store id.
func (s *Store) RedactEvent(_ context.Context, evtID id.ID, r event.Redaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return event.ErrStoreClosed
	}

	target, ok := s.events[evtID.String()]
	if !ok {
		return event.ErrNotFound
	}

	for k, v := range r.Set {
		target.Data[k] = v
	}

	for _, k := range r.Unset {
		delete(target.Data, k)
	}

	if r.StampDeleted && !target.IsDeleted() {
		now := time.Now().UTC()
		target.DeletedAt = &now
	}

	return nil
}

// locate finds the first event by scope, type, and client id, in ts order
// for determinism. With includeDeleted false only live events match.
func (s *Store) locate(q event.ContextQuery, t event.Type, clientID string, includeDeleted bool) *event.Event {
	var target *event.Event

	for _, evt := range s.events {
		if evt.RoomID != q.RoomID || evt.Type != t || evt.ClientID != clientID {
			continue
		}

		if !includeDeleted && evt.IsDeleted() {
			continue
		}

		if target == nil || evt.Timestamp.Before(target.Timestamp) {
			target = evt
		}
	}

	return target
}

// cloneEvent deep-copies an event so stored state never aliases caller or
// result values.
func cloneEvent(evt *event.Event) *event.Event {
	dup := *evt

	dup.ProcessedIDs = append([]string(nil), evt.ProcessedIDs...)
	dup.Data = cloneData(evt.Data)

	if evt.UpdatedAt != nil {
		t := *evt.UpdatedAt
		dup.UpdatedAt = &t
	}

	if evt.DeletedAt != nil {
		t := *evt.DeletedAt
		dup.DeletedAt = &t
	}

	return &dup
}

func cloneData(d event.Data) event.Data {
	dup := make(event.Data, len(d))
	for k, v := range d {
		dup[k] = cloneValue(v)
	}

	return dup
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneData(val)
	case []any:
		dup := make([]any, len(val))
		for i, item := range val {
			dup[i] = cloneValue(item)
		}

		return dup
	case []event.Data:
		dup := make([]event.Data, len(val))
		for i, item := range val {
			dup[i] = cloneData(item)
		}

		return dup
	default:
		return v
	}
}
