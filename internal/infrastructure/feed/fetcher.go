// Package feed retrieves news headlines from RSS, Atom and JSON feeds.
package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"

	"MarketBriefing/internal/domain"
	"MarketBriefing/pkg/textclean"
)

const (
	// DefaultMaxItems caps entries taken from a single feed document.
	DefaultMaxItems = 30

	defaultUserAgent = "MarketBriefing/1.0 (+pre-market news scan)"
	sourceKey        = "source"
	maxPublisherLen  = 60
)

var fallbackLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
}

// Fetcher downloads one feed document per call and normalizes its entries.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxItems  int
}

// NewFetcher wires an HTTP client; maxItems <= 0 means DefaultMaxItems.
func NewFetcher(client *http.Client, userAgent string, maxItems int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Fetcher{client: client, userAgent: userAgent, maxItems: maxItems}
}

// Fetch issues a single GET against feedURL. limit <= 0 uses the fetcher default.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, limit int) ([]domain.HeadlineRecord, error) {
	if limit <= 0 || limit > f.maxItems {
		limit = f.maxItems
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTranslator{}
	parsed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	records := make([]domain.HeadlineRecord, 0, min(limit, len(parsed.Items)))
	for _, item := range parsed.Items {
		if len(records) >= limit {
			break
		}
		if item == nil {
			continue
		}
		rec, ok := toRecord(item)
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// sourceTranslator keeps the RSS <source> element, which the universal item drops.
type sourceTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *sourceTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	out, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	raw, ok := feed.(*rss.Feed)
	if !ok {
		return out, nil
	}
	for i, item := range raw.Items {
		if i >= len(out.Items) {
			break
		}
		if item == nil || item.Source == nil {
			continue
		}
		title := strings.TrimSpace(item.Source.Title)
		if title == "" {
			continue
		}
		if out.Items[i].Custom == nil {
			out.Items[i].Custom = map[string]string{}
		}
		out.Items[i].Custom[sourceKey] = title
	}
	return out, nil
}

func toRecord(item *gofeed.Item) (domain.HeadlineRecord, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return domain.HeadlineRecord{}, false
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	raw, published := publishedOf(item)
	return domain.HeadlineRecord{
		Title:        title,
		Link:         link,
		Source:       sourceOf(item, title),
		Summary:      textclean.StripHTML(summary),
		Author:       authorOf(item),
		PublishedRaw: raw,
		PublishedAt:  published,
	}, true
}

func sourceOf(item *gofeed.Item, title string) string {
	if src := strings.TrimSpace(item.Custom[sourceKey]); src != "" {
		return src
	}
	if idx := strings.LastIndex(title, " - "); idx >= 0 {
		publisher := strings.TrimSpace(title[idx+3:])
		if n := len([]rune(publisher)); n >= 1 && n <= maxPublisherLen {
			return publisher
		}
	}
	return domain.UnknownSource
}

func authorOf(item *gofeed.Item) string {
	if item.Author != nil {
		if name := strings.TrimSpace(item.Author.Name); name != "" {
			return name
		}
	}
	for _, p := range item.Authors {
		if p == nil {
			continue
		}
		if name := strings.TrimSpace(p.Name); name != "" {
			return name
		}
		break
	}
	if item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if c = strings.TrimSpace(c); c != "" {
				return c
			}
		}
	}
	return ""
}

func publishedOf(item *gofeed.Item) (string, *time.Time) {
	raw := strings.TrimSpace(item.Published)
	parsed := item.PublishedParsed
	if raw == "" {
		raw = strings.TrimSpace(item.Updated)
		parsed = item.UpdatedParsed
	}
	if raw == "" {
		return "", nil
	}
	if parsed != nil {
		t := *parsed
		return raw, &t
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return raw, &t
		}
	}
	return raw, nil
}
