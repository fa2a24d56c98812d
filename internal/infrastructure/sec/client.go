// Package sec looks up recent Form 4 insider filings on SEC EDGAR.
package sec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
)

const (
	companyTickersURL = "https://www.sec.gov/files/company_tickers.json"
	submissionsURL    = "https://data.sec.gov/submissions"
	archiveURL        = "https://www.sec.gov/Archives/edgar/data"

	tickersCacheKey = "sec:company_tickers"
	// DefaultCacheTTL bounds how long the ticker to CIK table is reused.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultMinInterval spaces consecutive SEC requests.
	DefaultMinInterval = 150 * time.Millisecond
)

// ErrForbidden is returned when SEC rejects the configured User-Agent.
var ErrForbidden = errors.New("SEC returned 403\nSet a descriptive SEC_USER_AGENT, e.g. export SEC_USER_AGENT=\"Your Name you@example.com\"")

// Client implements InsiderSource against EDGAR JSON endpoints.
type Client struct {
	http      *http.Client
	userAgent string
	cache     ports.LookupCache
	cacheTTL  time.Duration

	tickersURL     string
	submissionsURL string
	archiveURL     string

	limiter *rate.Limiter
	mu      sync.Mutex
	tickers map[string]string
	now     func() time.Time
}

var _ ports.InsiderSource = (*Client)(nil)

// NewClient requires a descriptive userAgent; cache may be nil.
func NewClient(userAgent string, client *http.Client, cache ports.LookupCache) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{
		http:           client,
		userAgent:      strings.TrimSpace(userAgent),
		cache:          cache,
		cacheTTL:       DefaultCacheTTL,
		tickersURL:     companyTickersURL,
		submissionsURL: submissionsURL,
		archiveURL:     archiveURL,
		limiter:        newLimiter(DefaultMinInterval),
		now:            time.Now,
	}
}

type tickerRow struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

type submissions struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
		} `json:"recent"`
	} `json:"filings"`
}

// RecentFilings returns up to limit Form 4 filings for ticker, newest first.
// Unknown tickers yield an empty list.
func (c *Client) RecentFilings(ctx context.Context, ticker string, limit int) ([]domain.InsiderFiling, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" || limit <= 0 {
		return nil, nil
	}

	cik, ok, err := c.LookupCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var subs submissions
	if err := c.getJSON(ctx, fmt.Sprintf("%s/CIK%s.json", c.submissionsURL, cik), &subs); err != nil {
		return nil, fmt.Errorf("load submissions for %s: %w", ticker, err)
	}

	recent := subs.Filings.Recent
	n := min(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber))
	cikPath := strings.TrimLeft(cik, "0")

	var out []domain.InsiderFiling
	for i := 0; i < n && len(out) < limit; i++ {
		if recent.Form[i] != "4" {
			continue
		}
		acc := recent.AccessionNumber[i]
		out = append(out, domain.InsiderFiling{
			Ticker:     ticker,
			FilingDate: recent.FilingDate[i],
			Accession:  acc,
			URL:        fmt.Sprintf("%s/%s/%s/%s-index.html", c.archiveURL, cikPath, strings.ReplaceAll(acc, "-", ""), acc),
		})
	}
	return out, nil
}

// LookupCIK maps a ticker to its zero-padded ten digit CIK.
func (c *Client) LookupCIK(ctx context.Context, ticker string) (string, bool, error) {
	table, err := c.tickerTable(ctx)
	if err != nil {
		return "", false, err
	}
	cik, ok := table[strings.ToUpper(strings.TrimSpace(ticker))]
	return cik, ok, nil
}

func (c *Client) tickerTable(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	table := c.tickers
	c.mu.Unlock()
	if table != nil {
		return table, nil
	}

	var raw []byte
	if c.cache != nil {
		payload, updated, ok, err := c.cache.Get(ctx, tickersCacheKey)
		if err == nil && ok && c.now().Sub(updated) < c.cacheTTL {
			raw = payload
		}
	}

	fromNetwork := raw == nil
	if fromNetwork {
		body, err := c.get(ctx, c.tickersURL)
		if err != nil {
			return nil, fmt.Errorf("load company tickers: %w", err)
		}
		raw = body
	}

	table, err := parseTickers(raw)
	if err != nil {
		return nil, err
	}

	if fromNetwork && c.cache != nil {
		_ = c.cache.Put(ctx, tickersCacheKey, raw)
	}

	c.mu.Lock()
	c.tickers = table
	c.mu.Unlock()
	return table, nil
}

func parseTickers(raw []byte) (map[string]string, error) {
	var rows map[string]tickerRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode company tickers: %w", err)
	}
	table := make(map[string]string, len(rows))
	for _, row := range rows {
		t := strings.ToUpper(strings.TrimSpace(row.Ticker))
		if t == "" || row.CIK <= 0 {
			continue
		}
		if _, dup := table[t]; dup {
			continue
		}
		table[t] = fmt.Sprintf("%010d", row.CIK)
	}
	return table, nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.userAgent == "" {
		return nil, fmt.Errorf("SEC_USER_AGENT is not set")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/html,*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// newLimiter allows one request per interval; interval <= 0 disables spacing.
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
