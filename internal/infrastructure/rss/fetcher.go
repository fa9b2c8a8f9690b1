package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"PowerOfWords/internal/domain"
	"PowerOfWords/internal/ports"
)

// Fetcher retrieves and parses syndication feeds over HTTP.
type Fetcher struct {
	parser *gofeed.Parser
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "PowerOfWords/1.0"

	return &Fetcher{parser: parser}
}

// Fetch downloads and parses one feed, returning its entries in feed order.
// Transport errors, non-success statuses, and malformed bodies all surface
// as a single error carrying the feed URL.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.Entry, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	entries := make([]domain.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		entries = append(entries, domain.Entry{
			Title:     item.Title,
			Link:      item.Link,
			Published: published,
		})
	}

	return entries, nil
}
