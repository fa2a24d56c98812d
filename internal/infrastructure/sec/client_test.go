package sec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const tickersJSON = `{
  "0": {"cik_str": 1053507, "ticker": "NEM", "title": "Newmont Corp"},
  "1": {"cik_str": 34088, "ticker": "XOM", "title": "Exxon Mobil Corp"}
}`

const submissionsJSON = `{
  "cik": "1053507",
  "filings": {"recent": {
    "form": ["10-Q", "4", "8-K", "4", "4"],
    "filingDate": ["2026-01-05", "2026-01-04", "2026-01-03", "2026-01-02", "2025-12-30"],
    "accessionNumber": ["0001-26-000001", "0001127602-26-000123", "0001-26-000003", "0001127602-26-000100", "0001127602-25-000999"]
  }}
}`

type memoryCache struct {
	mu      sync.Mutex
	payload map[string][]byte
	at      map[string]time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{payload: map[string][]byte{}, at: map[string]time.Time{}}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payload[key]
	return p, m.at[key], ok, nil
}

func (m *memoryCache) Put(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload[key] = payload
	m.at[key] = time.Now()
	return nil
}

func newEdgar(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tickerHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		tickerHits.Add(1)
		if !strings.Contains(r.Header.Get("User-Agent"), "@") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(tickersJSON))
	})
	mux.HandleFunc("/submissions/CIK0001053507.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(submissionsJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tickerHits
}

func testClient(srv *httptest.Server, ua string, cache *memoryCache) *Client {
	c := NewClient(ua, srv.Client(), nil)
	if cache != nil {
		c.cache = cache
	}
	c.tickersURL = srv.URL + "/files/company_tickers.json"
	c.submissionsURL = srv.URL + "/submissions"
	c.limiter = newLimiter(0)
	return c
}

func TestRecentFilings(t *testing.T) {
	t.Parallel()

	srv, _ := newEdgar(t)
	c := testClient(srv, "Briefing Bot ops@example.com", nil)

	filings, err := c.RecentFilings(context.Background(), "nem", 2)
	if err != nil {
		t.Fatalf("RecentFilings: %v", err)
	}
	if len(filings) != 2 {
		t.Fatalf("expected 2 filings, got %d", len(filings))
	}
	first := filings[0]
	if first.Ticker != "NEM" || first.FilingDate != "2026-01-04" || first.Accession != "0001127602-26-000123" {
		t.Fatalf("unexpected filing: %+v", first)
	}
	want := "https://www.sec.gov/Archives/edgar/data/1053507/000112760226000123/0001127602-26-000123-index.html"
	if first.URL != want {
		t.Fatalf("URL = %s, want %s", first.URL, want)
	}

	none, err := c.RecentFilings(context.Background(), "ZZZZ", 2)
	if err != nil || len(none) != 0 {
		t.Fatalf("unknown ticker: %v %v", none, err)
	}
}

func TestForbiddenAndMissingAgent(t *testing.T) {
	t.Parallel()

	srv, _ := newEdgar(t)
	c := testClient(srv, "anonymous", nil)
	if _, err := c.RecentFilings(context.Background(), "NEM", 1); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	c = testClient(srv, "  ", nil)
	if _, err := c.RecentFilings(context.Background(), "NEM", 1); err == nil || !strings.Contains(err.Error(), "SEC_USER_AGENT") {
		t.Fatalf("expected missing agent error, got %v", err)
	}
}

func TestTickerTableCached(t *testing.T) {
	t.Parallel()

	srv, hits := newEdgar(t)
	cache := newMemoryCache()

	c := testClient(srv, "Briefing Bot ops@example.com", cache)
	if _, ok, err := c.LookupCIK(context.Background(), "XOM"); err != nil || !ok {
		t.Fatalf("LookupCIK: ok=%v err=%v", ok, err)
	}
	if _, _, err := c.LookupCIK(context.Background(), "NEM"); err != nil {
		t.Fatalf("LookupCIK: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one network fetch, got %d", hits.Load())
	}

	// a fresh client reads the persisted table
	c2 := testClient(srv, "Briefing Bot ops@example.com", cache)
	cik, ok, err := c2.LookupCIK(context.Background(), "xom")
	if err != nil || !ok || cik != "0000034088" {
		t.Fatalf("cached lookup: %q %v %v", cik, ok, err)
	}
	if hits.Load() != 1 {
		t.Fatalf("cache not used, hits=%d", hits.Load())
	}

	// an expired entry is refreshed
	c3 := testClient(srv, "Briefing Bot ops@example.com", cache)
	c3.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	if _, _, err := c3.LookupCIK(context.Background(), "XOM"); err != nil {
		t.Fatalf("LookupCIK: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expired cache should refetch, hits=%d", hits.Load())
	}
}

func TestRequestSpacing(t *testing.T) {
	t.Parallel()

	srv, _ := newEdgar(t)
	c := testClient(srv, "Briefing Bot ops@example.com", nil)
	c.limiter = newLimiter(60 * time.Millisecond)

	start := time.Now()
	if _, err := c.RecentFilings(context.Background(), "NEM", 1); err != nil {
		t.Fatalf("RecentFilings: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("two requests finished in %s, expected spacing", elapsed)
	}
}
