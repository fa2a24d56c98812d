package ports

import (
	"context"
	"time"

	"MarketBriefing/internal/domain"
)

// HeadlineRetriever pulls raw headline records for every source of a topic.
type HeadlineRetriever interface {
	Retrieve(ctx context.Context, topic domain.TopicSpec) []domain.SourceResult
}

// Classifier maps cleaned text to a sentiment label and confidence.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.SentimentResult
}

// ModelInfo describes a loaded sequence-classification model.
type ModelInfo struct {
	ID     string
	Labels map[int]string
}

// SentimentModel is the primary, expensive-to-load classifier backend.
type SentimentModel interface {
	Load(ctx context.Context) (ModelInfo, error)
	Logits(ctx context.Context, text string) ([]float64, error)
}

// BriefingRepository archives assembled briefings.
type BriefingRepository interface {
	SaveBriefing(ctx context.Context, briefing domain.Briefing) error
}

// LookupCache stores auxiliary lookups (e.g. ticker to CIK tables) between runs.
type LookupCache interface {
	Get(ctx context.Context, key string) ([]byte, time.Time, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// InsiderSource lists recent insider filings for a ticker.
type InsiderSource interface {
	RecentFilings(ctx context.Context, ticker string, limit int) ([]domain.InsiderFiling, error)
}

// CongressSource lists recent congressional trades, optionally filtered to tickers.
type CongressSource interface {
	RecentTrades(ctx context.Context, tickers []string, limit int) ([]domain.CongressTrade, error)
}

// Notifier streams the briefing digest to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when briefings execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
