package feed

import (
	"context"
	"errors"
	"log/slog"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
	"MarketBriefing/internal/scanner"
)

const (
	searchStrategy = "google-news"
	feedStrategy   = "rss"
)

var errNoRegistry = errors.New("scanner registry is not configured")

type sourceRequest struct {
	strategy string
	req      scanner.Request
}

// TopicSource implements HeadlineRetriever via registered scanner strategies.
type TopicSource struct {
	registry *scanner.Registry
	maxItems int
	logger   *slog.Logger
}

var _ ports.HeadlineRetriever = (*TopicSource)(nil)

// NewTopicSource wires the scanner registry; maxItems caps entries per feed.
func NewTopicSource(reg *scanner.Registry, maxItems int, log *slog.Logger) *TopicSource {
	return &TopicSource{
		registry: reg,
		maxItems: maxItems,
		logger:   log,
	}
}

// Retrieve runs one request per query and then one per extra feed, in order.
// A failing source never aborts the rest.
func (s *TopicSource) Retrieve(ctx context.Context, topic domain.TopicSpec) []domain.SourceResult {
	requests := make([]sourceRequest, 0, len(topic.Queries)+len(topic.ExtraFeeds))
	for _, q := range topic.Queries {
		requests = append(requests, sourceRequest{searchStrategy, scanner.Request{Topic: topic.Key, Query: q, MaxItems: s.maxItems}})
	}
	for _, u := range topic.ExtraFeeds {
		requests = append(requests, sourceRequest{feedStrategy, scanner.Request{Topic: topic.Key, URL: u, MaxItems: s.maxItems}})
	}

	s.debug("retrieve topic", "topic", topic.Key, "sources", len(requests))

	results := make([]domain.SourceResult, 0, len(requests))
	for _, r := range requests {
		results = append(results, s.run(ctx, r.strategy, r.req))
	}
	return results
}

func (s *TopicSource) run(ctx context.Context, strategy string, req scanner.Request) domain.SourceResult {
	name := req.Query
	if name == "" {
		name = req.URL
	}
	if s.registry == nil {
		return domain.SourceResult{Source: name, Err: errNoRegistry}
	}

	sc, err := s.registry.Resolve(strategy)
	if err != nil {
		s.warn("skip source", "topic", req.Topic, "source", name, "err", err)
		return domain.SourceResult{Source: name, Err: err}
	}
	name = sc.Describe(req)

	if err := ctx.Err(); err != nil {
		return domain.SourceResult{Source: name, Err: err}
	}

	records, err := sc.Scan(ctx, req)
	if err != nil {
		s.warn("skip source", "topic", req.Topic, "source", name, "err", err)
		return domain.SourceResult{Source: name, Err: err}
	}

	s.debug("source produced headlines", "topic", req.Topic, "source", name, "count", len(records))
	return domain.SourceResult{Source: name, Records: records}
}

func (s *TopicSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *TopicSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
