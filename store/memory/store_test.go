package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/store/memory"
)

func ctx() context.Context { return context.Background() }

func addMessage(t *testing.T, s *memory.Store, roomID, clientID string, d event.Data) *event.Event {
	t.Helper()

	evt := event.New("test-node", event.Context(roomID), event.Stub{
		ClientID: clientID,
		Type:     event.TypeMessage,
		Data:     d,
	})

	if _, err := s.AddEvent(ctx(), evt.Context(), evt); err != nil {
		t.Fatal(err)
	}

	return evt
}

func TestAddEventRejectsDuplicateLiveClientID(t *testing.T) {
	s := memory.New()
	addMessage(t, s, "room-1", "m1", event.Data{event.KeyMessage: "one"})

	dup := event.New("test-node", event.Context("room-1"), event.Stub{
		ClientID: "m1",
		Type:     event.TypeMessage,
		Data:     event.Data{event.KeyMessage: "two"},
	})

	if _, err := s.AddEvent(ctx(), dup.Context(), dup); !errors.Is(err, event.ErrDuplicateClientID) {
		t.Fatalf("expected ErrDuplicateClientID, got %v", err)
	}

	// The same client id in another room is fine.
	addMessage(t, s, "room-2", "m1", event.Data{event.KeyMessage: "elsewhere"})
}

func TestAddEventDoesNotAliasCallerData(t *testing.T) {
	s := memory.New()
	d := event.Data{event.KeyMessage: "original"}
	addMessage(t, s, "room-1", "m1", d)

	d[event.KeyMessage] = "mutated"

	found, err := s.FindEvents(ctx(), event.Context("room-1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if found[0].MessageText() != "original" {
		t.Fatal("stored event must not alias the caller's payload map")
	}
}

func TestUpdateEventDataSetAndUnset(t *testing.T) {
	s := memory.New()
	addMessage(t, s, "room-1", "m1", event.Data{
		event.KeyMessage:    "hello",
		event.KeyMessageSHA: "deadbeef",
	})

	err := s.UpdateEventData(ctx(), event.Context("room-1"), event.TypeMessage, "m1", event.Update{
		Set:   event.Data{event.KeyMessage: "edited"},
		Unset: []string{event.KeyMessageSHA},
	})
	if err != nil {
		t.Fatal(err)
	}

	found, err := s.FindEvents(ctx(), event.Context("room-1"), nil)
	if err != nil {
		t.Fatal(err)
	}

	evt := found[0]
	if evt.MessageText() != "edited" {
		t.Fatalf("expected patched text, got %q", evt.MessageText())
	}
	if _, ok := evt.Data[event.KeyMessageSHA]; ok {
		t.Fatal("unset key must be removed")
	}
	if evt.UpdatedAt == nil {
		t.Fatal("update must stamp _updatedAt")
	}
}

func TestUpdateEventDataSkipsDeletedEvents(t *testing.T) {
	s := memory.New()
	addMessage(t, s, "room-1", "m1", event.Data{event.KeyMessage: "hello"})

	q := event.Context("room-1")
	if err := s.FlagEventDeleted(ctx(), q, event.TypeMessage, "m1", time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	err := s.UpdateEventData(ctx(), q, event.TypeMessage, "m1", event.Update{
		Set: event.Data{event.KeyMessage: "too late"},
	})
	if !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a deleted event, got %v", err)
	}
}

func TestFlagEventDeletedKeepsFirstStamp(t *testing.T) {
	s := memory.New()
	addMessage(t, s, "room-1", "m1", event.Data{event.KeyMessage: "hello"})

	q := event.Context("room-1")
	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.FlagEventDeleted(ctx(), q, event.TypeMessage, "m1", first); err != nil {
		t.Fatal(err)
	}

	if err := s.FlagEventDeleted(ctx(), q, event.TypeMessage, "m1", first.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	found, _ := s.FindEvents(ctx(), q, nil)
	if found[0].DeletedAt == nil || !found[0].DeletedAt.Equal(first) {
		t.Fatalf("expected the first stamp to be kept, got %v", found[0].DeletedAt)
	}
}

func TestFlagEventDeletedEmptyClientIDTargetsUncorrelated(t *testing.T) {
	s := memory.New()
	q := event.Context("room-1")

	correlated := event.New("test-node", q, event.Stub{
		ClientID: "m1",
		Type:     event.TypeDeleteMessage,
		Data:     event.Data{},
	})
	uncorrelated := event.New("test-node", q, event.Stub{
		Type: event.TypeDeleteMessage,
		Data: event.Data{},
	})

	for _, evt := range []*event.Event{correlated, uncorrelated} {
		if _, err := s.AddEvent(ctx(), q, evt); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.FlagEventDeleted(ctx(), q, event.TypeDeleteMessage, "", time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	found, err := s.FindEvents(ctx(), q, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, evt := range found {
		switch evt.ClientID {
		case "m1":
			if evt.IsDeleted() {
				t.Fatal("correlated event must not match an empty client id")
			}
		case "":
			if !evt.IsDeleted() {
				t.Fatal("uncorrelated event must be the one stamped")
			}
		}
	}
}

func TestFindEventsOrderedByTimestamp(t *testing.T) {
	s := memory.New()
	q := event.Context("room-1")

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	offsets := map[string]time.Duration{"m1": time.Minute, "m2": 2 * time.Minute, "m3": 3 * time.Minute}

	// Inserted out of order on purpose.
	for _, cid := range []string{"m3", "m1", "m2"} {
		evt := event.New("test-node", q, event.Stub{
			ClientID: cid,
			Type:     event.TypeMessage,
			Data:     event.Data{event.KeyMessage: cid},
		})
		evt.Timestamp = base.Add(offsets[cid])

		if _, err := s.AddEvent(ctx(), q, evt); err != nil {
			t.Fatal(err)
		}
	}

	found, err := s.FindEvents(ctx(), q, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(found); i++ {
		if found[i].Timestamp.Before(found[i-1].Timestamp) {
			t.Fatal("results must be ordered by ts ascending")
		}
	}
}

func TestFindEventsScopedToRoom(t *testing.T) {
	s := memory.New()
	addMessage(t, s, "room-1", "m1", event.Data{event.KeyMessage: "here"})
	addMessage(t, s, "room-2", "m1", event.Data{event.KeyMessage: "elsewhere"})

	found, err := s.FindEvents(ctx(), event.Context("room-1"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].RoomID != "room-1" {
		t.Fatalf("expected only room-1 events, got %v", found)
	}
}

func TestFindEventsFilterOperators(t *testing.T) {
	s := memory.New()
	q := event.Context("room-1")

	addMessage(t, s, "room-1", "m1", event.Data{
		event.KeyMessage: "hello",
		event.KeyUser:    map[string]any{"_id": "alice"},
		"stars":          3,
	})
	addMessage(t, s, "room-1", "m2", event.Data{
		event.KeyMessage: "with file",
		event.KeyFile:    map[string]any{"_id": "f1"},
		"stars":          7,
	})

	cases := []struct {
		name   string
		filter event.Filter
		want   int
	}{
		{"equality on dotted payload path", event.Filter{"d.u._id": "alice"}, 1},
		{"existence", event.Filter{"d.file": event.Filter{"$exists": true}}, 1},
		{"non-existence", event.Filter{"d.file": event.Filter{"$exists": false}}, 1},
		{"ne", event.Filter{"d.msg": event.Filter{"$ne": "hello"}}, 1},
		{"in", event.Filter{"_cid": event.Filter{"$in": []any{"m1", "m9"}}}, 1},
		{"gt", event.Filter{"d.stars": event.Filter{"$gt": 3}}, 1},
		{"gte", event.Filter{"d.stars": event.Filter{"$gte": 3}}, 2},
		{"lt", event.Filter{"d.stars": event.Filter{"$lt": 3}}, 0},
		{"lte numeric cross-type", event.Filter{"d.stars": event.Filter{"$lte": 7.0}}, 2},
		{"conjunction", event.Filter{"d.u._id": "alice", "d.stars": 3}, 1},
		{"equality on missing path", event.Filter{"d.nope": "x"}, 0},
		{"unknown operator matches nothing", event.Filter{"d.stars": event.Filter{"$regexish": "3"}}, 0},
		{"and conjoins clauses on the same path", event.Filter{"$and": []event.Filter{
			{"d.msg": "hello"},
			{"d.msg": event.Filter{"$exists": true}},
		}}, 1},
		{"and with a failing clause", event.Filter{"$and": []event.Filter{
			{"d.msg": event.Filter{"$exists": true}},
			{"d.stars": event.Filter{"$gt": 100}},
		}}, 0},
		{"and beside a plain key", event.Filter{
			"d.u._id": "alice",
			"$and":    []event.Filter{{"d.stars": event.Filter{"$lte": 3}}},
		}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found, err := s.FindEvents(ctx(), q, tc.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(found) != tc.want {
				t.Fatalf("expected %d matches, got %d", tc.want, len(found))
			}
		})
	}
}

func TestFindEventsExistsOnRootStamps(t *testing.T) {
	s := memory.New()
	q := event.Context("room-1")

	addMessage(t, s, "room-1", "m1", event.Data{event.KeyMessage: "live"})
	addMessage(t, s, "room-1", "m2", event.Data{event.KeyMessage: "gone"})
	if err := s.FlagEventDeleted(ctx(), q, event.TypeMessage, "m2", time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	live, err := s.FindEvents(ctx(), q, event.Filter{"_deletedAt": event.Filter{"$exists": false}})
	if err != nil {
		t.Fatal(err)
	}
	if len(live) != 1 || live[0].ClientID != "m1" {
		t.Fatalf("expected only the live event, got %v", live)
	}

	deleted, err := s.FindEvents(ctx(), q, event.Filter{"_deletedAt": event.Filter{"$exists": true}})
	if err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 1 || deleted[0].ClientID != "m2" {
		t.Fatalf("expected only the deleted event, got %v", deleted)
	}
}

func TestRedactEvent(t *testing.T) {
	s := memory.New()
	evt := addMessage(t, s, "room-1", "m1", event.Data{
		event.KeyMessage: "hello",
		event.KeyFile:    map[string]any{"_id": "f1"},
	})

	err := s.RedactEvent(ctx(), evt.ID, event.Redaction{
		Set:          event.Data{event.KeyMessage: ""},
		Unset:        []string{event.KeyFile},
		StampDeleted: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	found, _ := s.FindEvents(ctx(), event.Context("room-1"), nil)
	got := found[0]
	if got.MessageText() != "" || !got.HasMessage() {
		t.Fatalf("expected cleared message text, got %v", got.Data)
	}
	if _, ok := got.Data[event.KeyFile]; ok {
		t.Fatal("unset key must be removed")
	}
	if !got.IsDeleted() {
		t.Fatal("redaction must stamp the soft delete")
	}
}

func TestRedactEventUnknownID(t *testing.T) {
	s := memory.New()
	evt := event.New("test-node", event.Context("room-1"), event.Stub{Type: event.TypeMessage})

	if err := s.RedactEvent(ctx(), evt.ID, event.Redaction{StampDeleted: true}); !errors.Is(err, event.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := memory.New()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	q := event.Context("room-1")
	evt := event.New("test-node", q, event.Stub{Type: event.TypeMessage, Data: event.Data{}})

	if _, err := s.AddEvent(ctx(), q, evt); !errors.Is(err, event.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from AddEvent, got %v", err)
	}
	if _, err := s.FindEvents(ctx(), q, nil); !errors.Is(err, event.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from FindEvents, got %v", err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, event.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed from Ping, got %v", err)
	}
}
