package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Admins() *mongo.Collection {
	return db.Database.Collection("admins")
}

func (db *DB) Counters() *mongo.Collection {
	return db.Database.Collection("counters")
}

// EnsureSchema applies idempotent migrations at startup. Records written by
// the old deployment predate the inline cover payload, so any book missing
// the imageData field gets an empty one. Running this repeatedly is a no-op.
func (db *DB) EnsureSchema(ctx context.Context) error {
	res, err := db.Books().UpdateMany(ctx,
		bson.M{"imageData": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"imageData": ""}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount > 0 {
		log.Printf("migrated %d book(s): added imageData field", res.ModifiedCount)
	}
	return nil
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
