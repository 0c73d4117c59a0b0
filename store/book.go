package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jaeyoon-oh/rarebooks/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookStore is the MongoDB-backed BookRepository.
type BookStore struct {
	db *DB
}

func NewBookStore(db *DB) *BookStore {
	return &BookStore{db: db}
}

// nextID hands out the next numeric surrogate id from the counters
// collection. FindOneAndUpdate with $inc is atomic, so concurrent inserts
// never see the same id.
func (s *BookStore) nextID(ctx context.Context) (int64, error) {
	res := s.db.Counters().FindOneAndUpdate(ctx,
		bson.M{"_id": "books"},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := res.Decode(&counter); err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

func (s *BookStore) Insert(ctx context.Context, book *models.Book) (int64, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return 0, err
	}
	book.ID = id
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	if _, err := s.db.Books().InsertOne(ctx, book); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BookStore) All(ctx context.Context) ([]models.Book, error) {
	return s.find(ctx, bson.M{})
}

// Search matches the query case-insensitively against title, author,
// description, condition, and the publication year rendered as text.
func (s *BookStore) Search(ctx context.Context, query string) ([]models.Book, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"author": pattern},
		bson.M{"description": pattern},
		bson.M{"condition": pattern},
		bson.M{"$expr": bson.M{"$regexMatch": bson.M{
			"input":   bson.M{"$toString": "$year"},
			"regex":   regexp.QuoteMeta(query),
			"options": "i",
		}}},
	}}
	return s.find(ctx, filter)
}

func (s *BookStore) find(ctx context.Context, filter bson.M) ([]models.Book, error) {
	cur, err := s.db.Books().Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *BookStore) ByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := s.db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update replaces every mutable field. Last writer wins.
func (s *BookStore) Update(ctx context.Context, book *models.Book) error {
	update := bson.M{"$set": bson.M{
		"title":         book.Title,
		"author":        book.Author,
		"year":          book.Year,
		"edition":       book.Edition,
		"condition":     book.Condition,
		"price":         book.Price,
		"stockQuantity": book.StockQuantity,
		"description":   book.Description,
		"imageFile":     book.ImageFile,
		"imageData":     book.ImageData,
	}}
	res, err := s.db.Books().UpdateOne(ctx, bson.M{"_id": book.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BookStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock is the purchase path. The guard and the decrement travel in
// one UpdateOne so two concurrent purchases of a book's last unit can never
// both succeed; stock is never observed negative.
func (s *BookStore) DecrementStock(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.Books().UpdateOne(ctx,
		bson.M{"_id": id, "stockQuantity": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"stockQuantity": -1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
