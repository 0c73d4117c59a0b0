package store

import (
	"context"
	"errors"
	"time"

	"github.com/jaeyoon-oh/rarebooks/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminByEmail returns nil, nil when no admin with that email exists.
func (db *DB) AdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := db.Admins().FindOne(ctx, bson.M{"email": email}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (db *DB) CreateAdmin(ctx context.Context, admin *models.Admin) (primitive.ObjectID, error) {
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	res, err := db.Admins().InsertOne(ctx, admin)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}
