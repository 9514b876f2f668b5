package id_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/meshchat/roomlog/id"
)

func TestNewEventID(t *testing.T) {
	evtID := id.NewEventID()

	if evtID.IsNil() {
		t.Fatal("generated id must not be nil")
	}
	if evtID.Prefix() != id.PrefixEvent {
		t.Fatalf("expected prefix %q, got %q", id.PrefixEvent, evtID.Prefix())
	}
	if !strings.HasPrefix(evtID.String(), "rev_") {
		t.Fatalf("expected rev_ prefix in string form, got %q", evtID.String())
	}

	if id.NewEventID() == evtID {
		t.Fatal("generated ids must be unique")
	}
}

func TestParseEventIDRoundTrip(t *testing.T) {
	evtID := id.NewEventID()

	parsed, err := id.ParseEventID(evtID.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != evtID {
		t.Fatalf("expected %v, got %v", evtID, parsed)
	}
}

func TestParseEventIDRejectsWrongPrefix(t *testing.T) {
	other := id.New("task")

	if _, err := id.ParseEventID(other.String()); err == nil {
		t.Fatal("expected an error for a foreign prefix")
	}
}

func TestParseRejectsEmptyAndGarbage(t *testing.T) {
	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected an error for the empty string")
	}
	if _, err := id.Parse("not a typeid"); err == nil {
		t.Fatal("expected an error for a malformed value")
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Fatal("the zero value must report nil")
	}
	if id.Nil.String() != "" {
		t.Fatalf("expected empty string form, got %q", id.Nil.String())
	}
	if id.Nil.Prefix() != "" {
		t.Fatalf("expected empty prefix, got %q", id.Nil.Prefix())
	}
}

func TestTextMarshaling(t *testing.T) {
	evtID := id.NewEventID()

	raw, err := json.Marshal(evtID)
	if err != nil {
		t.Fatal(err)
	}

	var decoded id.ID
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded != evtID {
		t.Fatalf("expected %v after round trip, got %v", evtID, decoded)
	}

	var fromEmpty id.ID
	if err := fromEmpty.UnmarshalText(nil); err != nil {
		t.Fatal(err)
	}
	if !fromEmpty.IsNil() {
		t.Fatal("empty text must decode to the nil id")
	}
}
