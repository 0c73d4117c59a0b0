package service

import (
	"context"
	"log"
	"strings"
)

// Related is one cross-referenced recommendation shown on a book detail page.
type Related struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Link      string `json:"link"`
}

// AuthorSearcher is the one capability a metadata provider has to offer.
type AuthorSearcher interface {
	SearchByAuthor(ctx context.Context, author string) ([]Related, error)
}

// RelatedCache is an optional read-through cache for resolver output.
type RelatedCache interface {
	GetRelated(ctx context.Context, key string) ([]Related, bool)
	SetRelated(ctx context.Context, key string, items []Related)
}

// maxRelated caps how many recommendations a detail page shows.
const maxRelated = 4

// Recommender resolves recommendations through an ordered provider chain.
// Providers are tried in order until one yields a non-empty filtered result;
// every provider failure is downgraded to "no results from this provider" so
// the detail page always renders.
type Recommender struct {
	Providers []AuthorSearcher
	Cache     RelatedCache // optional
}

// FindRelated returns up to maxRelated books by the same author, excluding
// the queried book itself. Both title and author must be non-empty;
// otherwise it returns nothing without touching the network. It never
// returns an error: recommendation gaps are a normal outcome.
func (r *Recommender) FindRelated(ctx context.Context, title, author string) []Related {
	if title == "" || author == "" {
		return nil
	}
	key := strings.ToLower(title) + "|" + strings.ToLower(author)
	if r.Cache != nil {
		if items, ok := r.Cache.GetRelated(ctx, key); ok {
			return items
		}
	}
	for _, p := range r.Providers {
		items, err := p.SearchByAuthor(ctx, author)
		if err != nil {
			log.Printf("related: provider %T: %v", p, err)
			continue
		}
		filtered := filterRelated(items, title)
		if len(filtered) > 0 {
			if r.Cache != nil {
				r.Cache.SetRelated(ctx, key, filtered)
			}
			return filtered
		}
	}
	return nil
}

// filterRelated drops any entry whose title contains the queried title
// (case-insensitive) and truncates to maxRelated, preserving provider order.
// The substring test also suppresses legitimate titles that embed the query
// ("Children of Dune" for "Dune"); that matches the store's long-standing
// behavior and is pinned by tests.
func filterRelated(items []Related, title string) []Related {
	needle := strings.ToLower(title)
	out := make([]Related, 0, maxRelated)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), needle) {
			continue
		}
		out = append(out, item)
		if len(out) == maxRelated {
			break
		}
	}
	return out
}
