package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleBooksBase = "https://www.googleapis.com/books/v1"

// GoogleBooksClient searches Google Books volumes by author, newest first.
// It is the secondary provider in the recommendation chain.
type GoogleBooksClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGoogleBooksClient(timeout time.Duration) *GoogleBooksClient {
	return &GoogleBooksClient{
		BaseURL: googleBooksBase,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// googleBooksVolumesResp is the response from GET /volumes?q=inauthor:...
type googleBooksVolumesResp struct {
	Items []struct {
		VolumeInfo struct {
			Title      string   `json:"title"`
			Authors    []string `json:"authors"`
			InfoLink   string   `json:"infoLink"`
			ImageLinks struct {
				SmallThumbnail string `json:"smallThumbnail"`
				Thumbnail      string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (c *GoogleBooksClient) SearchByAuthor(ctx context.Context, author string) ([]Related, error) {
	q := url.Values{}
	q.Set("q", "inauthor:"+author)
	q.Set("orderBy", "newest")
	q.Set("maxResults", "10")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/volumes?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	items := make([]Related, 0, len(data.Items))
	for _, item := range data.Items {
		vi := item.VolumeInfo
		name := "Unknown"
		if len(vi.Authors) > 0 {
			name = strings.Join(vi.Authors, ", ")
		}
		thumb := vi.ImageLinks.Thumbnail
		if thumb == "" {
			thumb = vi.ImageLinks.SmallThumbnail
		}
		items = append(items, Related{
			Title:     vi.Title,
			Author:    name,
			Thumbnail: normalizeThumbnail(thumb),
			Link:      vi.InfoLink,
		})
	}
	return items, nil
}

// normalizeThumbnail cleans up a Google Books image URL: forces https,
// strips the edge=curl page-fold decoration, and upgrades the zoom=5
// small-thumbnail hint to the larger zoom=1 rendition.
func normalizeThumbnail(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = "https"
	q := u.Query()
	q.Del("edge")
	if q.Get("zoom") == "5" {
		q.Set("zoom", "1")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
