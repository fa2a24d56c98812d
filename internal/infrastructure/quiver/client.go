// Package quiver reads congressional trading disclosures from the Quiver Quantitative API.
package quiver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
)

const liveCongressURL = "https://api.quiverquant.com/beta/live/congresstrading"

// Column candidates, tried in order; the feed has renamed fields before.
var (
	tickerColumns      = []string{"ticker", "symbol"}
	politicianColumns  = []string{"representative", "politician", "name"}
	transactionColumns = []string{"transaction", "type"}
	dateColumns        = []string{"transactiondate", "date"}
	amountColumns      = []string{"amount", "range"}
)

// Client implements CongressSource.
type Client struct {
	http     *http.Client
	apiKey   string
	endpoint string
}

var _ ports.CongressSource = (*Client)(nil)

// NewClient wires the API token; an empty key makes every call fail.
func NewClient(apiKey string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{http: client, apiKey: strings.TrimSpace(apiKey), endpoint: liveCongressURL}
}

// RecentTrades reads the latest limit rows and keeps those touching tickers.
// An empty ticker list keeps every row.
func (c *Client) RecentTrades(ctx context.Context, tickers []string, limit int) ([]domain.CongressTrade, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("QUIVER_API_KEY is not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode trades: %w", err)
	}

	return selectTrades(rows, tickers, limit), nil
}

func selectTrades(rows []map[string]any, tickers []string, limit int) []domain.CongressTrade {
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	watch := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		watch[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}

	var out []domain.CongressTrade
	for _, row := range rows {
		cols := lowerKeys(row)
		ticker := strings.ToUpper(pick(cols, tickerColumns))
		if len(watch) > 0 && ticker != "" {
			if _, ok := watch[ticker]; !ok {
				continue
			}
		}
		out = append(out, domain.CongressTrade{
			Ticker:      orDefault(ticker, "UNKNOWN"),
			Politician:  orDefault(pick(cols, politicianColumns), "Unknown"),
			Transaction: orDefault(pick(cols, transactionColumns), "Unknown"),
			Date:        pick(cols, dateColumns),
			Amount:      pick(cols, amountColumns),
		})
	}
	return out
}

func lowerKeys(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[strings.ToLower(k)] = v
	}
	return out
}

func pick(cols map[string]any, names []string) string {
	for _, n := range names {
		if v, ok := cols[n]; ok {
			return strings.TrimSpace(stringify(v))
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
