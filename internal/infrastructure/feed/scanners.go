package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/scanner"
)

const googleNewsBaseURL = "https://news.google.com/rss/search"

// GoogleNewsScanner turns a search query into a Google News RSS request.
type GoogleNewsScanner struct {
	fetcher *Fetcher
	baseURL string
}

var _ scanner.Scanner = (*GoogleNewsScanner)(nil)

// NewGoogleNewsScanner uses the public news.google.com search feed.
func NewGoogleNewsScanner(f *Fetcher) *GoogleNewsScanner {
	return &GoogleNewsScanner{fetcher: f, baseURL: googleNewsBaseURL}
}

// Name identifies the strategy inside the registry.
func (g *GoogleNewsScanner) Name() string {
	return "google-news"
}

// Describe names the request in logs and source results.
func (g *GoogleNewsScanner) Describe(req scanner.Request) string {
	return fmt.Sprintf("google-news %q", req.Query)
}

// Scan fetches a single search feed for req.Query.
func (g *GoogleNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.HeadlineRecord, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty query for topic %s", req.Topic)
	}
	return g.fetcher.Fetch(ctx, SearchURL(g.baseURL, req.Query), req.MaxItems)
}

// SearchURL builds the US-English search feed URL; spaces become '+'.
func SearchURL(base, query string) string {
	return base + "?q=" + url.QueryEscape(query) + "&hl=en-US&gl=US&ceid=US:en"
}

// RSSScanner fetches an arbitrary feed URL.
type RSSScanner struct {
	fetcher *Fetcher
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wraps a shared fetcher.
func NewRSSScanner(f *Fetcher) *RSSScanner {
	return &RSSScanner{fetcher: f}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Describe names the request in logs and source results.
func (r *RSSScanner) Describe(req scanner.Request) string {
	return "rss " + req.URL
}

// Scan fetches req.URL.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.HeadlineRecord, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("empty feed url for topic %s", req.Topic)
	}
	return r.fetcher.Fetch(ctx, req.URL, req.MaxItems)
}
