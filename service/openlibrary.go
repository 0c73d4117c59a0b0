package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	openLibrarySite   = "https://openlibrary.org"
	openLibraryCovers = "https://covers.openlibrary.org"
)

// OpenLibraryClient searches the Open Library catalog by author. It is the
// primary provider in the recommendation chain.
type OpenLibraryClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewOpenLibraryClient(timeout time.Duration) *OpenLibraryClient {
	return &OpenLibraryClient{
		BaseURL: openLibrarySite,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// openLibrarySearchResp is the response from GET /search.json?author=...
type openLibrarySearchResp struct {
	Docs []struct {
		Title      string   `json:"title"`
		AuthorName []string `json:"author_name"`
		CoverID    int64    `json:"cover_i"`
		ISBN       []string `json:"isbn"`
		Key        string   `json:"key"`
	} `json:"docs"`
}

func (c *OpenLibraryClient) SearchByAuthor(ctx context.Context, author string) ([]Related, error) {
	q := url.Values{}
	q.Set("author", author)
	q.Set("limit", "10")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open library returned %d", resp.StatusCode)
	}
	var data openLibrarySearchResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	items := make([]Related, 0, len(data.Docs))
	for _, doc := range data.Docs {
		name := "Unknown"
		if len(doc.AuthorName) > 0 {
			name = strings.Join(doc.AuthorName, ", ")
		}
		items = append(items, Related{
			Title:     doc.Title,
			Author:    name,
			Thumbnail: openLibraryThumbnail(doc.CoverID, doc.ISBN),
			Link:      openLibrarySite + doc.Key,
		})
	}
	return items, nil
}

// openLibraryThumbnail derives a medium cover URL from the doc's cover id,
// falling back to its first ISBN. Covers are always served over https.
func openLibraryThumbnail(coverID int64, isbns []string) string {
	if coverID != 0 {
		return openLibraryCovers + "/b/id/" + strconv.FormatInt(coverID, 10) + "-M.jpg"
	}
	if len(isbns) > 0 {
		clean := strings.ReplaceAll(strings.TrimSpace(isbns[0]), "-", "")
		if clean != "" {
			return openLibraryCovers + "/b/isbn/" + url.PathEscape(clean) + "-M.jpg"
		}
	}
	return ""
}
