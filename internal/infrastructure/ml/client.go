package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"MarketBriefing/internal/ports"
)

// Client talks to a text-classification inference server exposing /info and
// /predict (text-embeddings-inference compatible).
type Client struct {
	endpoint string
	apiKey   string
	modelID  string
	http     *http.Client

	labelIndex map[string]int
}

var _ ports.SentimentModel = (*Client)(nil)

// NewClient creates a reusable HTTP client; modelID must match the served model.
func NewClient(endpoint, apiKey, modelID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		modelID:  modelID,
		http:     &http.Client{Timeout: timeout},
	}
}

type infoResponse struct {
	ModelID        string `json:"model_id"`
	MaxInputLength int    `json:"max_input_length"`
	ModelType      struct {
		Classifier *struct {
			ID2Label map[string]string `json:"id2label"`
		} `json:"classifier"`
	} `json:"model_type"`
}

type predictRequest struct {
	Inputs    string `json:"inputs"`
	Truncate  bool   `json:"truncate"`
	RawScores bool   `json:"raw_scores"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Load verifies the server hosts the configured classifier and reads its id2label table.
// It must complete before Logits is called.
func (c *Client) Load(ctx context.Context) (ports.ModelInfo, error) {
	if c.endpoint == "" {
		return ports.ModelInfo{}, fmt.Errorf("ml endpoint is not configured")
	}

	var info infoResponse
	if err := c.do(ctx, http.MethodGet, "/info", nil, &info); err != nil {
		return ports.ModelInfo{}, fmt.Errorf("load model info: %w", err)
	}

	if c.modelID != "" && !strings.EqualFold(info.ModelID, c.modelID) {
		return ports.ModelInfo{}, fmt.Errorf("server hosts %q, want %q", info.ModelID, c.modelID)
	}
	if info.ModelType.Classifier == nil || len(info.ModelType.Classifier.ID2Label) == 0 {
		return ports.ModelInfo{}, fmt.Errorf("model %q has no classification head", info.ModelID)
	}

	labels := make(map[int]string, len(info.ModelType.Classifier.ID2Label))
	index := make(map[string]int, len(labels))
	for rawID, name := range info.ModelType.Classifier.ID2Label {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			return ports.ModelInfo{}, fmt.Errorf("invalid label id %q: %w", rawID, err)
		}
		labels[id] = name
		index[name] = id
	}
	c.labelIndex = index

	return ports.ModelInfo{ID: info.ModelID, Labels: labels}, nil
}

// Logits returns raw class scores ordered by label id.
func (c *Client) Logits(ctx context.Context, text string) ([]float64, error) {
	if c.labelIndex == nil {
		return nil, fmt.Errorf("model is not loaded")
	}

	var scores []labelScore
	req := predictRequest{Inputs: text, Truncate: true, RawScores: true}
	if err := c.do(ctx, http.MethodPost, "/predict", req, &scores); err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(scores) != len(c.labelIndex) {
		return nil, fmt.Errorf("predict returned %d scores for %d labels", len(scores), len(c.labelIndex))
	}

	logits := make([]float64, len(c.labelIndex))
	seen := make([]bool, len(logits))
	for _, s := range scores {
		id, ok := c.labelIndex[s.Label]
		if !ok || id < 0 || id >= len(logits) {
			return nil, fmt.Errorf("predict returned unknown label %q", s.Label)
		}
		logits[id] = s.Score
		seen[id] = true
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("predict omitted label id %d", id)
		}
	}

	return logits, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, v any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
