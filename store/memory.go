package store

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jaeyoon-oh/rarebooks/models"
)

// MemoryStore is an in-process BookRepository used for local development and
// tests. Every operation takes the one mutex, so the conditional decrement
// has the same all-or-nothing behavior as the MongoDB statement.
type MemoryStore struct {
	mu     sync.Mutex
	books  map[int64]models.Book
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{books: make(map[int64]models.Book)}
}

func (s *MemoryStore) Insert(_ context.Context, book *models.Book) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	book.ID = s.nextID
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	s.books[book.ID] = *book
	return book.ID, nil
}

func (s *MemoryStore) All(_ context.Context) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(func(models.Book) bool { return true }), nil
}

func (s *MemoryStore) Search(_ context.Context, query string) ([]models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	return s.snapshot(func(b models.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) ||
			strings.Contains(strings.ToLower(b.Description), needle) ||
			strings.Contains(strings.ToLower(b.Condition), needle) ||
			strings.Contains(strconv.Itoa(b.Year), needle)
	}), nil
}

// snapshot copies matching books, newest first. Callers must hold mu.
func (s *MemoryStore) snapshot(match func(models.Book) bool) []models.Book {
	out := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *MemoryStore) ByID(_ context.Context, id int64) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) Update(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.books[book.ID]
	if !ok {
		return ErrNotFound
	}
	book.CreatedAt = existing.CreatedAt
	s.books[book.ID] = *book
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return ErrNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *MemoryStore) DecrementStock(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.StockQuantity <= 0 {
		return false, nil
	}
	b.StockQuantity--
	s.books[id] = b
	return true, nil
}
