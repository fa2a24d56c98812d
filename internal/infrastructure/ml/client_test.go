package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const finbertInfo = `{
  "model_id": "ProsusAI/finbert",
  "max_input_length": 512,
  "model_type": {"classifier": {"id2label": {"0": "positive", "1": "negative", "2": "neutral"}}}
}`

func newServer(t *testing.T, info string, predict func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("info method = %s", r.Method)
		}
		_, _ = w.Write([]byte(info))
	})
	mux.HandleFunc("/predict", predict)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadAndLogits(t *testing.T) {
	t.Parallel()

	srv := newServer(t, finbertInfo, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}
		var req predictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Truncate || !req.RawScores || req.Inputs != "gold rallies" {
			t.Errorf("unexpected request: %+v", req)
		}
		// sorted by score, not by id
		_, _ = w.Write([]byte(`[{"label":"neutral","score":1.5},{"label":"positive","score":0.25},{"label":"negative","score":-2}]`))
	})

	c := NewClient(srv.URL+"/", "secret", "prosusai/finbert", time.Second)
	info, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.ID != "ProsusAI/finbert" || info.Labels[1] != "negative" || len(info.Labels) != 3 {
		t.Fatalf("unexpected info: %+v", info)
	}

	logits, err := c.Logits(context.Background(), "gold rallies")
	if err != nil {
		t.Fatalf("Logits: %v", err)
	}
	want := []float64{0.25, -2, 1.5}
	for i := range want {
		if logits[i] != want[i] {
			t.Fatalf("logits = %v, want %v", logits, want)
		}
	}
}

func TestLoadRejectsWrongModel(t *testing.T) {
	t.Parallel()

	srv := newServer(t, finbertInfo, func(http.ResponseWriter, *http.Request) {})
	c := NewClient(srv.URL, "", "yiyanghkust/finbert-tone", time.Second)
	if _, err := c.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "want") {
		t.Fatalf("expected model mismatch error, got %v", err)
	}
}

func TestLoadRejectsMissingClassifier(t *testing.T) {
	t.Parallel()

	srv := newServer(t, `{"model_id":"ProsusAI/finbert","model_type":{"embedding":{}}}`, func(http.ResponseWriter, *http.Request) {})
	c := NewClient(srv.URL, "", "", time.Second)
	if _, err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected error for model without classifier head")
	}
}

func TestLoadUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "weights missing", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", time.Second)
	if _, err := c.Load(context.Background()); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}

	if _, err := NewClient("", "", "", 0).Load(context.Background()); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestLogitsErrors(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		body string
	)
	srv := newServer(t, finbertInfo, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		_, _ = w.Write([]byte(body))
	})

	c := NewClient(srv.URL, "", "", time.Second)
	if _, err := c.Logits(context.Background(), "x"); err == nil {
		t.Fatalf("expected error before Load")
	}
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, b := range []string{
		`[{"label":"positive","score":1}]`,
		`[{"label":"positive","score":1},{"label":"bullish","score":0},{"label":"neutral","score":0}]`,
		`not json`,
	} {
		mu.Lock()
		body = b
		mu.Unlock()
		if _, err := c.Logits(context.Background(), "x"); err == nil {
			t.Fatalf("expected error for body %s", b)
		}
	}
}
