package event

// ContextQuery is the scoping predicate limiting a store operation to one
// room's events. It is derived, never stored.
type ContextQuery struct {
	RoomID string
}

// Context resolves the scope for a raw room identifier. Pure; no I/O.
func Context(roomID string) ContextQuery {
	return ContextQuery{RoomID: roomID}
}

// Context resolves the scope from an existing event's room id.
func (e *Event) Context() ContextQuery {
	return ContextQuery{RoomID: e.RoomID}
}

// IsZero reports whether the scope carries no room id. Operations reject
// zero scopes before touching the store.
func (q ContextQuery) IsZero() bool {
	return q.RoomID == ""
}
