package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jaeyoon-oh/rarebooks/models"
	"github.com/jaeyoon-oh/rarebooks/service"
	"github.com/jaeyoon-oh/rarebooks/store"
)

// BooksHandler serves the public catalog: listing, search, detail,
// recommendations, and the purchase action.
type BooksHandler struct {
	Books       store.BookRepository
	Recommender *service.Recommender
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	var books []models.Book
	var err error
	if q := r.URL.Query().Get("q"); q != "" {
		books, err = h.Books.Search(r.Context(), q)
	} else {
		books, err = h.Books.All(r.Context())
	}
	if err != nil {
		http.Error(w, `{"error":"failed to list books"}`, http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	book, ok := h.bookFromURL(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

// Cover serves the raw cover image decoded from the record's inline payload.
func (h *BooksHandler) Cover(w http.ResponseWriter, r *http.Request) {
	book, ok := h.bookFromURL(w, r)
	if !ok {
		return
	}
	if book.ImageData == "" {
		http.Error(w, `{"error":"no cover"}`, http.StatusNotFound)
		return
	}
	image, err := base64.StdEncoding.DecodeString(book.ImageData)
	if err != nil {
		http.Error(w, `{"error":"stored cover is corrupt"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(image))
	w.Write(image)
}

// Related returns up to four cross-referenced recommendations for the book.
// Provider outages surface as an empty list, never as an error.
func (h *BooksHandler) Related(w http.ResponseWriter, r *http.Request) {
	book, ok := h.bookFromURL(w, r)
	if !ok {
		return
	}
	items := h.Recommender.FindRelated(r.Context(), book.Title, book.Author)
	if items == nil {
		items = []service.Related{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// Purchase decrements stock by one. The store applies the stock check and
// the decrement as a single conditional statement, so concurrent purchases
// of the last unit resolve to exactly one success.
func (h *BooksHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	purchased, err := h.Books.DecrementStock(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"purchase failed"}`, http.StatusInternalServerError)
		return
	}
	if !purchased {
		http.Error(w, `{"error":"out of stock or unknown book"}`, http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"purchased"}`))
}

func (h *BooksHandler) bookFromURL(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return nil, false
	}
	book, err := h.Books.ByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, `{"error":"failed to load book"}`, http.StatusInternalServerError)
		return nil, false
	}
	return book, true
}
