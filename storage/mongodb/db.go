// Package mongodb implements the core repositories on a MongoDB database.
// Documents carry string UUIDs in _id so storage backends stay interchangeable.
package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection       = "users"
	programsCollection    = "programs"
	enrollmentsCollection = "enrollments"
	contactsCollection    = "contacts"
)

type DB struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Open connects to the MongoDB deployment at uri and pings the primary.
func Open(uri, name string, timeout time.Duration) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongodb primary")
	}
	return &DB{
		client:  client,
		db:      client.Database(name),
		timeout: timeout,
	}, nil
}

func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.timeout)
	defer cancel()
	return db.client.Disconnect(ctx)
}

func (db *DB) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), db.timeout)
}
