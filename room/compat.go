package room

import (
	"slices"

	"github.com/meshchat/roomlog/event"
)

// rootSchemaFields is the fixed set of current-schema root fields. The
// legacy flat message carried these at the top level next to its payload
// fields; the bridge uses the set to tell the two apart.
var rootSchemaFields = []string{
	"_cid", // the old root _id, caller-generated, now "client id"
	"_pids",
	"v",
	"ts",
	"src",
	"rid",
	"t",
	"d",
	"_updatedAt",
	"_deletedAt",
}

// BelongsToRootSchema reports whether a field name is part of the
// current-schema root, as opposed to the payload.
func BelongsToRootSchema(field string) bool {
	return slices.Contains(rootSchemaFields, field)
}

// FromLegacy extracts the payload from a legacy flat message: root-schema
// fields are stripped, the payload-internal type defaults to "msg", the
// user reference and message body are retained, and the content signature
// is reset. One-directional: the root fields of the legacy message are
// not recoverable from the returned payload.
func FromLegacy(message map[string]any) event.Data {
	d := event.Data{}

	for k, v := range message {
		if !BelongsToRootSchema(k) {
			d[k] = v
		}
	}

	d[event.KeyPayloadType] = "msg"
	if t, ok := message[event.KeyPayloadType].(string); ok && t != "" {
		d[event.KeyPayloadType] = t
	}

	if u, ok := message[event.KeyUser]; ok {
		d[event.KeyUser] = u
	}

	if msg, ok := message[event.KeyMessage]; ok {
		d[event.KeyMessage] = msg
	}

	d[event.KeyMessageSHA] = ""

	return d
}

// ToLegacy flattens an event into the legacy message shape: root fields at
// the top level with the payload fields spread over them, payload winning
// on key collision. The flattened type is the payload's internal type; when
// the payload has none, the field is absent. Read projection only, never
// re-persisted.
func ToLegacy(evt *event.Event) map[string]any {
	flat := map[string]any{
		"_id":   evt.ID.String(),
		"_pids": evt.ProcessedIDs,
		"v":     evt.Version,
		"ts":    evt.Timestamp,
		"src":   evt.Source,
		"rid":   evt.RoomID,
	}

	if evt.ClientID != "" {
		flat["_cid"] = evt.ClientID
	}

	if evt.UpdatedAt != nil {
		flat["_updatedAt"] = *evt.UpdatedAt
	}

	if evt.DeletedAt != nil {
		flat["_deletedAt"] = *evt.DeletedAt
	}

	// The flattened t comes from the payload's internal type, never the
	// event discriminator, so it is simply left out of the root set above.
	for k, v := range evt.Data {
		flat[k] = v
	}

	return flat
}
