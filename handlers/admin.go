package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jaeyoon-oh/rarebooks/models"
	"github.com/jaeyoon-oh/rarebooks/service"
	"github.com/jaeyoon-oh/rarebooks/store"
)

// CoverExtractor reads listing fields off a cover photo.
type CoverExtractor interface {
	ExtractFromCover(ctx context.Context, image []byte, mimeType string) (*service.ExtractedBook, error)
}

// AdminHandler manages listings behind the admin auth gate.
type AdminHandler struct {
	Books     store.BookRepository
	Extractor CoverExtractor
	Archive   *service.CoverArchive // optional
	MaxBytes  int64
}

// Create adds a listing from a multipart form carrying price,
// stock_quantity, and a cover photo. Title, author, year, edition,
// condition, and description come from the extractor.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, `{"error":"failed to parse multipart form"}`, http.StatusBadRequest)
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		http.Error(w, `{"error":"invalid price"}`, http.StatusBadRequest)
		return
	}
	stock, err := strconv.Atoi(r.FormValue("stock_quantity"))
	if err != nil || stock < 0 {
		http.Error(w, `{"error":"invalid stock quantity"}`, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("book_image")
	if err != nil {
		http.Error(w, `{"error":"cover image is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, `{"error":"failed to read cover image"}`, http.StatusInternalServerError)
		return
	}
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		http.Error(w, `{"error":"only image uploads are allowed"}`, http.StatusBadRequest)
		return
	}

	if h.Extractor == nil {
		http.Error(w, `{"error":"cover analysis is not configured"}`, http.StatusServiceUnavailable)
		return
	}
	meta, err := h.Extractor.ExtractFromCover(r.Context(), image, mimeType)
	if errors.Is(err, service.ErrMalformedExtraction) {
		http.Error(w, `{"error":"could not read the cover; please try again"}`, http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"cover analysis failed"}`, http.StatusBadGateway)
		return
	}

	book := &models.Book{
		Title:         fallback(meta.Title, "Unknown Title"),
		Author:        fallback(meta.Author, "Unknown Author"),
		Year:          meta.Year,
		Edition:       meta.Edition,
		Condition:     fallback(meta.Condition, "Good"),
		Price:         price,
		StockQuantity: stock,
		Description:   meta.Description,
		ImageData:     base64.StdEncoding.EncodeToString(image),
		CreatedAt:     time.Now(),
	}
	if h.Archive != nil {
		key, err := h.Archive.Store(r.Context(), image, mimeType)
		if err != nil {
			// The record keeps its inline copy either way.
			log.Printf("cover archive: %v", err)
		} else {
			book.ImageFile = key
		}
	}

	if _, err := h.Books.Insert(r.Context(), book); err != nil {
		http.Error(w, `{"error":"failed to save book"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

// UpdateBookRequest carries the editable fields. Pointers distinguish
// "not provided" from "set to the zero value".
type UpdateBookRequest struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Year          *int     `json:"year"`
	Edition       *string  `json:"edition"`
	Condition     *string  `json:"condition"`
	Price         *float64 `json:"price"`
	StockQuantity *int     `json:"stock_quantity"`
	Description   *string  `json:"description"`
	ImageData     *string  `json:"image_data"` // base64; replaces the stored cover
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	var req UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	book, err := h.Books.ByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"failed to load book"}`, http.StatusInternalServerError)
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Year != nil {
		book.Year = *req.Year
	}
	if req.Edition != nil {
		book.Edition = *req.Edition
	}
	if req.Condition != nil {
		book.Condition = *req.Condition
	}
	if req.Price != nil {
		book.Price = *req.Price
	}
	if req.StockQuantity != nil {
		book.StockQuantity = *req.StockQuantity
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.ImageData != nil {
		if _, err := base64.StdEncoding.DecodeString(*req.ImageData); err != nil {
			http.Error(w, `{"error":"image_data must be base64"}`, http.StatusBadRequest)
			return
		}
		book.ImageData = *req.ImageData
	}

	if book.Title == "" || book.Author == "" {
		http.Error(w, `{"error":"title and author are required"}`, http.StatusUnprocessableEntity)
		return
	}
	if book.Price < 0 || book.StockQuantity < 0 {
		http.Error(w, `{"error":"price and stock quantity must not be negative"}`, http.StatusUnprocessableEntity)
		return
	}

	if err := h.Books.Update(r.Context(), book); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to update book"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid book id"}`, http.StatusBadRequest)
		return
	}
	book, err := h.Books.ByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"failed to load book"}`, http.StatusInternalServerError)
		return
	}
	if err := h.Books.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"book not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, `{"error":"failed to delete book"}`, http.StatusInternalServerError)
		return
	}
	if h.Archive != nil && book.ImageFile != "" {
		if err := h.Archive.Delete(r.Context(), book.ImageFile); err != nil {
			log.Printf("cover archive delete: %v", err)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"deleted"}`))
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
