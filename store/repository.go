package store

import (
	"context"
	"errors"

	"github.com/jaeyoon-oh/rarebooks/models"
)

// ErrNotFound is returned when a book id matches no record.
var ErrNotFound = errors.New("book not found")

// BookRepository is the minimal persistence surface the handlers need.
// It keeps the store swappable between MongoDB and the in-memory driver.
type BookRepository interface {
	Insert(ctx context.Context, book *models.Book) (int64, error)
	All(ctx context.Context) ([]models.Book, error)
	Search(ctx context.Context, query string) ([]models.Book, error)
	ByID(ctx context.Context, id int64) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id int64) error

	// DecrementStock subtracts one unit of stock iff the book exists and has
	// stock remaining, as a single conditional statement. It reports true
	// exactly when one record was modified. A false result covers both
	// "sold out" and "unknown id".
	DecrementStock(ctx context.Context, id int64) (bool, error)
}
