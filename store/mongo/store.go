// Package mongo implements the append-log engine on MongoDB via Grove ORM,
// dropping to the raw driver collection where atomic field-level updates
// are needed.
package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/meshchat/roomlog/event"
)

// colRoomEvents is the room event collection name.
const colRoomEvents = "room_events"

// Compile-time interface check.
var _ event.Store = (*Store)(nil)

// Store implements event.Store using MongoDB via Grove ORM.
type Store struct {
	db     *grove.DB
	mdb    *mongodriver.MongoDB
	logger *slog.Logger
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:     db,
		mdb:    mongodriver.Unwrap(db),
		logger: logger,
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate declares the room event indexes. Invoked once by the hosting
// process. Failures (typically "already exists" with different options on
// long-lived deployments) are logged and tolerated, never fatal.
func (s *Store) Migrate(ctx context.Context) error {
	col := s.mdb.Collection(colRoomEvents)

	for _, model := range eventIndexes() {
		if _, err := col.Indexes().CreateOne(ctx, model); err != nil {
			s.logger.Warn("roomlog/mongo: ensure index failed",
				"collection", colRoomEvents,
				"keys", model.Keys,
				"error", err,
			)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// eventIndexes returns the index definitions for the room event collection:
// the room+time order, the payload lookups the store contract names, the
// TTL index for expiring documents, and the live-message client id guard.
func eventIndexes() []mongod.IndexModel {
	return []mongod.IndexModel{
		{Keys: bson.D{{Key: "rid", Value: 1}, {Key: "ts", Value: 1}}},
		{
			Keys: bson.D{{Key: "rid", Value: 1}, {Key: "t", Value: 1}, {Key: "_cid", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "t", Value: string(event.TypeMessage)}}),
		},
		{
			Keys:    bson.D{{Key: "d.u._id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "rid", Value: 1}, {Key: "t", Value: 1}, {Key: "d.u._id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.file._id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.drid", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.tmid", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.mentions.username", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.pinned", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.snippeted", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.unread", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.tcount", Value: 1}, {Key: "d.tlm", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.slackBotId", Value: 1}, {Key: "d.slackTs", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.navigation.token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{Keys: bson.D{{Key: "d.location", Value: "2dsphere"}}},
		{
			Keys:    bson.D{{Key: "d.msg", Value: "text"}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "d.expireAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
}
