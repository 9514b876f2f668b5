package event

import (
	"time"

	"github.com/meshchat/roomlog/id"
)

// Type discriminates the payload shape carried in an event's d field.
type Type string

// Type constants for the closed set of room event kinds.
const (
	// TypeGenesis marks room creation and carries a full room snapshot.
	TypeGenesis Type = "genesis"

	// TypeMessage is a chat message.
	TypeMessage Type = "msg"

	// TypeEditMessage is a data patch correlated to a prior message by client id.
	TypeEditMessage Type = "emsg"

	// TypeDeleteMessage marks a message as deleted. The client id is optional;
	// without one the event is a standalone delete marker.
	TypeDeleteMessage Type = "dmsg"

	// TypeDeleteRoom marks the whole room as deleted.
	TypeDeleteRoom Type = "droom"

	// TypePruneMessages is the audit record of a bulk redaction run. Its
	// payload holds the serialized caller filter, never reinterpreted.
	TypePruneMessages Type = "prmsg"
)

// CurrentVersion is the schema generation stamped on newly created events.
const CurrentVersion = 2

// Data is the polymorphic event payload. Its shape is determined by the
// event type; keys use the persisted wire names.
type Data = map[string]any

// Payload keys with meaning to this module. Everything else in d is opaque.
const (
	KeyMessage          = "msg"
	KeyUser             = "u"
	KeyFile             = "file"
	KeyDiscussionRoomID = "drid"
	KeyAttachments      = "attachments"
	KeyMessageSHA       = "_msgSha"
	KeyPayloadType      = "t"
	KeyRoom             = "room"
	KeyQuery            = "query"
)

// Event is the append-only unit of the room log. Core fields are immutable
// once appended; the only permitted mutations are data patches, the
// soft-delete stamp, and the prune engine's audited rewrite.
type Event struct {
	// ID is the store-assigned unique identifier.
	ID id.ID `bson:"_id" json:"_id"`

	// ClientID is the caller-generated correlation id, unique within a room
	// among live message events. Optional for uncorrelated events.
	ClientID string `bson:"_cid,omitempty" json:"_cid,omitempty"`

	// ProcessedIDs lists downstream consumers that have acknowledged the
	// event. Propagation bookkeeping, opaque to this module.
	ProcessedIDs []string `bson:"_pids" json:"_pids"`

	// Version is the schema generation marker.
	Version int `bson:"v" json:"v"`

	// Timestamp is the creation time. Events within a room are totally
	// ordered by it.
	Timestamp time.Time `bson:"ts" json:"ts"`

	// Source is the origin tag of the node that produced the event.
	Source string `bson:"src" json:"src"`

	// RoomID scopes the event to exactly one room.
	RoomID string `bson:"rid" json:"rid"`

	// Type selects the payload shape.
	Type Type `bson:"t" json:"t"`

	// Data is the payload.
	Data Data `bson:"d" json:"d"`

	// UpdatedAt is the last data-patch time, unset until first patched.
	UpdatedAt *time.Time `bson:"_updatedAt,omitempty" json:"_updatedAt,omitempty"`

	// DeletedAt is the soft-delete time, present only once deleted.
	DeletedAt *time.Time `bson:"_deletedAt,omitempty" json:"_deletedAt,omitempty"`
}

// Stub is the caller-built part of an event before construction assigns
// identity, timestamps, and schema version.
type Stub struct {
	ClientID string
	Type     Type
	Data     Data
}

// New builds a persistable event from a stub. It assigns the store id,
// stamps the creation time, and marks the current schema generation.
func New(src string, q ContextQuery, stub Stub) *Event {
	d := stub.Data
	if d == nil {
		d = Data{}
	}

	return &Event{
		ID:           id.NewEventID(),
		ClientID:     stub.ClientID,
		ProcessedIDs: []string{},
		Version:      CurrentVersion,
		Timestamp:    time.Now().UTC(),
		Source:       src,
		RoomID:       q.RoomID,
		Type:         stub.Type,
		Data:         d,
	}
}

// IsDeleted reports whether the event carries a soft-delete stamp.
func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}

// MessageText returns the message body, or "" when absent or not a string.
func (e *Event) MessageText() string {
	s, _ := e.Data[KeyMessage].(string)
	return s
}

// HasMessage reports whether the payload carries a message-text field at
// all, empty or not. The prune scan keys on field presence, not content.
func (e *Event) HasMessage() bool {
	_, ok := e.Data[KeyMessage]
	return ok
}

// FileID returns the attached file's identifier, or "" when the payload
// carries no file sub-object with an id.
func (e *Event) FileID() string {
	file, ok := e.Data[KeyFile].(map[string]any)
	if !ok {
		return ""
	}

	fid, _ := file["_id"].(string)

	return fid
}

// DiscussionRoomID returns the linked discussion's room id, or "".
func (e *Event) DiscussionRoomID() string {
	drid, _ := e.Data[KeyDiscussionRoomID].(string)
	return drid
}

// AddResult reports the outcome of appending an event.
type AddResult struct {
	// ID is the store id of the appended event.
	ID id.ID

	// Timestamp is the appended event's position in the room order.
	Timestamp time.Time
}
