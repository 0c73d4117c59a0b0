package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jaeyoon-oh/rarebooks/models"
	"github.com/jaeyoon-oh/rarebooks/service"
	"github.com/jaeyoon-oh/rarebooks/store"
)

func newCatalogRouter(books store.BookRepository, rec *service.Recommender) http.Handler {
	if rec == nil {
		rec = &service.Recommender{}
	}
	h := &BooksHandler{Books: books, Recommender: rec}
	r := chi.NewRouter()
	r.Get("/api/books", h.List)
	r.Get("/api/books/{id}", h.Get)
	r.Get("/api/books/{id}/cover", h.Cover)
	r.Get("/api/books/{id}/related", h.Related)
	r.Post("/api/books/{id}/purchase", h.Purchase)
	return r
}

func mustInsert(t *testing.T, books store.BookRepository, b models.Book) int64 {
	t.Helper()
	id, err := books.Insert(context.Background(), &b)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	return id
}

func TestPurchase_DecrementsUntilSoldOut(t *testing.T) {
	books := store.NewMemoryStore()
	id := mustInsert(t, books, models.Book{Title: "Dune", Author: "Frank Herbert", StockQuantity: 1})
	router := newCatalogRouter(books, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/1/purchase", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first purchase: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/1/purchase", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("second purchase: status %d, want 409", rec.Code)
	}

	book, err := books.ByID(context.Background(), id)
	if err != nil {
		t.Fatalf("byID: %v", err)
	}
	if book.StockQuantity != 0 {
		t.Fatalf("final stock = %d, want 0", book.StockQuantity)
	}
}

// Two concurrent purchases of the last copy: exactly one 200, one 409.
func TestPurchase_ConcurrentLastUnit(t *testing.T) {
	books := store.NewMemoryStore()
	mustInsert(t, books, models.Book{Title: "Dune", Author: "Frank Herbert", StockQuantity: 1})
	router := newCatalogRouter(books, nil)

	var wg sync.WaitGroup
	codes := make(chan int, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/1/purchase", nil))
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	if counts[http.StatusOK] != 1 || counts[http.StatusConflict] != 1 {
		t.Fatalf("expected one success and one conflict, got %v", counts)
	}
}

func TestPurchase_UnknownAndInvalidID(t *testing.T) {
	router := newCatalogRouter(store.NewMemoryStore(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/42/purchase", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("unknown id: status %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/books/dune/purchase", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid id: status %d, want 400", rec.Code)
	}
}

func TestList_SearchFilters(t *testing.T) {
	books := store.NewMemoryStore()
	mustInsert(t, books, models.Book{Title: "Dune", Author: "Frank Herbert", Year: 1965, StockQuantity: 1})
	mustInsert(t, books, models.Book{Title: "Neuromancer", Author: "William Gibson", Year: 1984, StockQuantity: 1})
	router := newCatalogRouter(books, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books?q=gibson", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got []models.Book
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Neuromancer" {
		t.Fatalf("unexpected search result: %+v", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 books, got %d", len(got))
	}
}

func TestGet_NotFound(t *testing.T) {
	router := newCatalogRouter(store.NewMemoryStore(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/7", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

type emptyProvider struct{}

func (emptyProvider) SearchByAuthor(context.Context, string) ([]service.Related, error) {
	return nil, nil
}

func TestRelated_EmptyIsJSONArray(t *testing.T) {
	books := store.NewMemoryStore()
	mustInsert(t, books, models.Book{Title: "Dune", Author: "Frank Herbert", StockQuantity: 1})
	rec := &service.Recommender{Providers: []service.AuthorSearcher{emptyProvider{}}}
	router := newCatalogRouter(books, rec)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/1/related", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var got []service.Related
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v (body %q)", err, w.Body.String())
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty array, got %v", got)
	}
}

func TestCover_ServesDecodedImage(t *testing.T) {
	books := store.NewMemoryStore()
	// PNG signature so content sniffing reports image/png.
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
	mustInsert(t, books, models.Book{
		Title: "Dune", Author: "Frank Herbert", StockQuantity: 1,
		ImageData: base64.StdEncoding.EncodeToString(png),
	})
	router := newCatalogRouter(books, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/1/cover", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), png) {
		t.Errorf("body does not round-trip the stored payload")
	}
}

func TestCover_MissingPayloadIs404(t *testing.T) {
	books := store.NewMemoryStore()
	mustInsert(t, books, models.Book{Title: "Dune", Author: "Frank Herbert", StockQuantity: 1})
	router := newCatalogRouter(books, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/1/cover", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/9/cover", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown book: status %d, want 404", rec.Code)
	}
}

func TestCover_CorruptPayloadIs500(t *testing.T) {
	books := store.NewMemoryStore()
	mustInsert(t, books, models.Book{
		Title: "Dune", Author: "Frank Herbert", StockQuantity: 1,
		ImageData: "!!not-base64!!",
	})
	router := newCatalogRouter(books, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/books/1/cover", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", rec.Code)
	}
}
