package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/meshchat/roomlog/event"
	"github.com/meshchat/roomlog/id"
)

// AddEvent persists a built event. The partial unique index on
// rid+t+_cid surfaces client id collisions among message events.
func (s *Store) AddEvent(ctx context.Context, q event.ContextQuery, evt *event.Event) (*event.AddResult, error) {
	m := toEventModel(evt)
	m.RoomID = q.RoomID

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil, event.ErrDuplicateClientID
		}

		return nil, fmt.Errorf("roomlog/mongo: add event: %w", err)
	}

	return &event.AddResult{ID: evt.ID, Timestamp: evt.Timestamp}, nil
}

// UpdateEventData merges a payload patch into the live event located by
// scope, type, and client id, stamping _updatedAt server-side.
func (s *Store) UpdateEventData(ctx context.Context, q event.ContextQuery, t event.Type, clientID string, patch event.Update) error {
	filter := locateFilter(q, t, clientID)
	filter["_deletedAt"] = bson.M{"$exists": false}

	update := bson.M{
		"$currentDate": bson.M{"_updatedAt": true},
	}

	if len(patch.Set) > 0 {
		set := bson.M{}
		for k, v := range patch.Set {
			set["d."+k] = toBSON(v)
		}

		update["$set"] = set
	}

	if len(patch.Unset) > 0 {
		unset := bson.M{}
		for _, k := range patch.Unset {
			unset["d."+k] = 1
		}

		update["$unset"] = unset
	}

	res, err := s.mdb.Collection(colRoomEvents).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("roomlog/mongo: update event data: %w", err)
	}

	if res.MatchedCount == 0 {
		return event.ErrNotFound
	}

	return nil
}

// FlagEventDeleted stamps _deletedAt on the located event. An event that
// already carries the stamp keeps it and the call succeeds.
func (s *Store) FlagEventDeleted(ctx context.Context, q event.ContextQuery, t event.Type, clientID string, at time.Time) error {
	col := s.mdb.Collection(colRoomEvents)

	located := locateFilter(q, t, clientID)

	filter := bson.M{"_deletedAt": bson.M{"$exists": false}}
	for k, v := range located {
		filter[k] = v
	}

	update := bson.M{"$set": bson.M{"_deletedAt": at.UTC()}}

	res, err := col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("roomlog/mongo: flag event deleted: %w", err)
	}

	if res.MatchedCount > 0 {
		return nil
	}

	// No live match: either the event never existed or it is already
	// deleted. Only the former is an error.
	n, err := col.CountDocuments(ctx, located)
	if err != nil {
		return fmt.Errorf("roomlog/mongo: flag event deleted: %w", err)
	}

	if n == 0 {
		return event.ErrNotFound
	}

	return nil
}

// FindEvents returns scoped events matching the filter, ordered by ts.
func (s *Store) FindEvents(ctx context.Context, q event.ContextQuery, filter event.Filter) ([]*event.Event, error) {
	f := bson.M{"rid": q.RoomID}
	for k, v := range filter {
		f[k] = toBSON(v)
	}

	var models []eventModel

	err := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "ts", Value: 1}}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("roomlog/mongo: find events: %w", err)
	}

	result := make([]*event.Event, 0, len(models))

	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, evt)
	}

	return result, nil
}

// RedactEvent applies a redaction to one event by store id as a single
// atomic document update.
func (s *Store) RedactEvent(ctx context.Context, evtID id.ID, r event.Redaction) error {
	update := bson.M{}

	if len(r.Set) > 0 {
		set := bson.M{}
		for k, v := range r.Set {
			set["d."+k] = toBSON(v)
		}

		update["$set"] = set
	}

	if len(r.Unset) > 0 {
		unset := bson.M{}
		for _, k := range r.Unset {
			unset["d."+k] = 1
		}

		update["$unset"] = unset
	}

	if r.StampDeleted {
		update["$currentDate"] = bson.M{"_deletedAt": true}
	}

	if len(update) == 0 {
		return nil
	}

	res, err := s.mdb.Collection(colRoomEvents).UpdateOne(ctx, bson.M{"_id": evtID.String()}, update)
	if err != nil {
		return fmt.Errorf("roomlog/mongo: redact event: %w", err)
	}

	if res.MatchedCount == 0 {
		return event.ErrNotFound
	}

	return nil
}

// locateFilter builds the unique-target predicate shared by update and
// flag operations. An empty clientID targets only uncorrelated events,
// never a correlated event of the same room and type.
func locateFilter(q event.ContextQuery, t event.Type, clientID string) bson.M {
	f := bson.M{"rid": q.RoomID, "t": string(t)}

	if clientID == "" {
		f["_cid"] = bson.M{"$exists": false}
	} else {
		f["_cid"] = clientID
	}

	return f
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}
