// Package roomlog provides a room-scoped event-sourced log for chat rooms.
//
// roomlog is a library, not a service. Import it into your application to
// get an append-only store of domain events describing the lifecycle of a
// chat room and its messages, a backward-compatibility bridge between the
// legacy flat message shape and the current enveloped-event shape, and a
// bulk redaction ("prune") operation that rewrites matched events in place
// while collecting file and discussion identifiers for external cleanup.
//
// Key features:
//   - Typed event constructors (genesis, message, edit, delete, delete-room)
//     over a narrow append-log engine interface
//   - Store adapters for MongoDB (Grove ORM) and in-memory testing
//   - Optional per-type JSON Schema payload validation
//   - Classification-driven prune with side-effect id collection
//   - v1/v2 schema compatibility projections
//
// Quick start:
//
//	log, err := roomlog.New(
//	    roomlog.WithStore(memory.New()),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	rooms := log.Rooms()
//	rooms.CreateGenesisEvent(ctx, "", "room_1", event.Data{"name": "general"})
//	rooms.CreateMessageEvent(ctx, "", "room_1", "cid-1", event.Data{"msg": "hello"})
package roomlog
