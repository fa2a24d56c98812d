// Package topics holds the static, ordered set of market themes scanned by a briefing.
package topics

import (
	"fmt"
	"strings"

	"MarketBriefing/internal/domain"
)

// Registry keeps topics in declaration order. It is read-only after New.
type Registry struct {
	order []string
	specs map[string]domain.TopicSpec
}

// New validates specs and preserves their order. Keys are lower-cased.
func New(specs []domain.TopicSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]domain.TopicSpec, len(specs))}
	for _, s := range specs {
		key := strings.ToLower(strings.TrimSpace(s.Key))
		if key == "" {
			return nil, fmt.Errorf("topic with empty key")
		}
		if _, dup := r.specs[key]; dup {
			return nil, fmt.Errorf("duplicate topic %q", key)
		}
		if len(s.Queries) == 0 && len(s.ExtraFeeds) == 0 {
			return nil, fmt.Errorf("topic %q has no queries or feeds", key)
		}
		s.Key = key
		s.Queries = append([]string(nil), s.Queries...)
		s.ExtraFeeds = append([]string(nil), s.ExtraFeeds...)
		s.Tickers = append([]string(nil), s.Tickers...)
		r.specs[key] = s
		r.order = append(r.order, key)
	}
	return r, nil
}

// All returns the topics in declaration order.
func (r *Registry) All() []domain.TopicSpec {
	out := make([]domain.TopicSpec, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.specs[k])
	}
	return out
}

// Keys returns topic keys in declaration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.order...)
}

// Get looks a topic up by key.
func (r *Registry) Get(key string) (domain.TopicSpec, bool) {
	s, ok := r.specs[strings.ToLower(key)]
	return s, ok
}

// Default returns the built-in gold, oil, ai, crypto and world topics.
func Default() *Registry {
	r, err := New(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultSpecs lists the built-in topics.
func DefaultSpecs() []domain.TopicSpec {
	return []domain.TopicSpec{
		{
			Key: "gold",
			Queries: []string{
				"gold price",
				"gold miners",
				"GLD ETF",
				"XAUUSD",
				"Federal Reserve rates gold",
			},
			Tickers: []string{"GOLD", "NEM", "AEM", "WPM", "FNV", "GLD", "IAU"},
		},
		{
			Key: "oil",
			Queries: []string{
				"crude oil price",
				"WTI oil",
				"Brent oil",
				"OPEC",
				"US crude inventories EIA",
				"oil futures",
			},
			Tickers: []string{"XOM", "CVX", "COP", "OXY", "EOG", "SLB", "XLE", "USO"},
		},
		{
			Key: "ai",
			Queries: []string{
				"AI stocks",
				"Nvidia AI chips",
				"semiconductors AI demand",
				"OpenAI Microsoft AI",
				"Google AI",
				"datacenter GPUs",
			},
			Tickers: []string{
				"NVDA", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "AMD", "AVGO",
				"ASML", "SMCI", "TSM", "AAPL", "AIQ", "BOTZ", "SOXX",
			},
		},
		{
			Key: "crypto",
			Queries: []string{
				"bitcoin price",
				"ethereum price",
				"crypto market",
				"bitcoin ETF flows",
				"SEC crypto",
				"coinbase",
			},
			Tickers: []string{"COIN", "MSTR", "RIOT", "MARA", "HUT", "BITO", "IBIT", "GBTC"},
		},
		{
			Key: "world",
			Queries: []string{
				"global markets",
				"inflation data",
				"central bank rates",
				"geopolitics market impact",
				"trade tariffs",
				"China economy markets",
				"Europe economy markets",
			},
			Tickers: []string{"SPY", "QQQ", "DIA", "IWM", "TLT", "UUP", "EEM", "FXI", "EWJ", "EWG"},
		},
	}
}
