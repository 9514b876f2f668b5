package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/id"
)

type eventModel struct {
	grove.BaseModel `grove:"table:room_events"`

	ID           string     `grove:"id,pk"       bson:"_id"`
	ClientID     string     `grove:"cid"         bson:"_cid,omitempty"`
	ProcessedIDs []string   `grove:"pids"        bson:"_pids"`
	Version      int        `grove:"v"           bson:"v"`
	Timestamp    time.Time  `grove:"ts"          bson:"ts"`
	Source       string     `grove:"src"         bson:"src"`
	RoomID       string     `grove:"rid"         bson:"rid"`
	Type         string     `grove:"t"           bson:"t"`
	Data         bson.M     `grove:"d"           bson:"d"`
	UpdatedAt    *time.Time `grove:"updated_at"  bson:"_updatedAt,omitempty"`
	DeletedAt    *time.Time `grove:"deleted_at"  bson:"_deletedAt,omitempty"`
}

func toEventModel(evt *event.Event) *eventModel {
	return &eventModel{
		ID:           evt.ID.String(),
		ClientID:     evt.ClientID,
		ProcessedIDs: evt.ProcessedIDs,
		Version:      evt.Version,
		Timestamp:    evt.Timestamp,
		Source:       evt.Source,
		RoomID:       evt.RoomID,
		Type:         string(evt.Type),
		Data:         bson.M(evt.Data),
		UpdatedAt:    evt.UpdatedAt,
		DeletedAt:    evt.DeletedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event ID %q: %w", m.ID, err)
	}

	return &event.Event{
		ID:           evtID,
		ClientID:     m.ClientID,
		ProcessedIDs: m.ProcessedIDs,
		Version:      m.Version,
		Timestamp:    m.Timestamp,
		Source:       m.Source,
		RoomID:       m.RoomID,
		Type:         event.Type(m.Type),
		Data:         event.Data(m.Data),
		UpdatedAt:    m.UpdatedAt,
		DeletedAt:    m.DeletedAt,
	}, nil
}

// toBSON normalizes filter values (event.Filter, nested maps, slices) into
// driver types.
func toBSON(v any) any {
	switch val := v.(type) {
	case event.Filter:
		return toBSONMap(val)
	case map[string]any:
		return toBSONMap(val)
	case []event.Filter:
		out := make(bson.A, len(val))
		for i, clause := range val {
			out[i] = toBSONMap(clause)
		}

		return out
	case []any:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = toBSON(item)
		}

		return out
	default:
		return v
	}
}

func toBSONMap(m map[string]any) bson.M {
	out := make(bson.M, len(m))
	for k, v := range m {
		out[k] = toBSON(v)
	}

	return out
}
