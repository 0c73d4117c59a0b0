package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenLibrary_SearchByAuthor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("author"); got != "Frank Herbert" {
			t.Errorf("author = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"docs":[
			{"title":"Dune Messiah","author_name":["Frank Herbert"],"cover_i":12345,"key":"/works/OL893415W"},
			{"title":"The Green Brain","author_name":["Frank Herbert"],"isbn":["978-0-441-30261-4"],"key":"/works/OL893500W"},
			{"title":"Anonymous Pamphlet","key":"/works/OL1W"}
		]}`))
	}))
	defer srv.Close()

	c := &OpenLibraryClient{BaseURL: srv.URL, HTTP: srv.Client()}
	items, err := c.SearchByAuthor(context.Background(), "Frank Herbert")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Thumbnail != "https://covers.openlibrary.org/b/id/12345-M.jpg" {
		t.Errorf("cover_i thumbnail = %q", items[0].Thumbnail)
	}
	if items[0].Link != "https://openlibrary.org/works/OL893415W" {
		t.Errorf("link = %q", items[0].Link)
	}
	if items[1].Thumbnail != "https://covers.openlibrary.org/b/isbn/9780441302614-M.jpg" {
		t.Errorf("isbn thumbnail = %q", items[1].Thumbnail)
	}
	if items[2].Thumbnail != "" {
		t.Errorf("doc without cover info should have empty thumbnail, got %q", items[2].Thumbnail)
	}
	if items[2].Author != "Unknown" {
		t.Errorf("missing author_name should map to Unknown, got %q", items[2].Author)
	}
}

func TestOpenLibrary_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := &OpenLibraryClient{BaseURL: srv.URL, HTTP: srv.Client()}
	if _, err := c.SearchByAuthor(context.Background(), "Frank Herbert"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestOpenLibrary_MalformedBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := &OpenLibraryClient{BaseURL: srv.URL, HTTP: srv.Client()}
	if _, err := c.SearchByAuthor(context.Background(), "Frank Herbert"); err == nil {
		t.Fatal("expected decode error")
	}
}
