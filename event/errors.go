package event

import "errors"

// Sentinel errors for the append-log contract. Create/update/flag
// operations propagate these unchanged to the caller; there is no local
// recovery.
var (
	// ErrRoomIDRequired reports an operation issued without a room scope.
	ErrRoomIDRequired = errors.New("roomlog: room id is required")

	// ErrTypeRequired reports an event missing its type discriminator.
	ErrTypeRequired = errors.New("roomlog: event type is required")

	// ErrNotFound reports that no event matched an update or flag target.
	ErrNotFound = errors.New("roomlog: event not found")

	// ErrDuplicateClientID reports a client id already taken by a live
	// message event in the same room.
	ErrDuplicateClientID = errors.New("roomlog: duplicate client id in room")

	// ErrGenesisExists reports a second genesis event for a room.
	ErrGenesisExists = errors.New("roomlog: room already has a genesis event")

	// ErrPayloadInvalid reports a payload rejected by its type's schema.
	ErrPayloadInvalid = errors.New("roomlog: payload validation failed")

	// ErrStoreClosed reports an operation attempted after Close.
	ErrStoreClosed = errors.New("roomlog: store is closed")
)
