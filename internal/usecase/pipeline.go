package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
	"MarketBriefing/pkg/textclean"
)

// ScanDeps wires the driven adapters used by a topic scan.
type ScanDeps struct {
	Retriever  ports.HeadlineRetriever
	Classifier ports.Classifier
	Logger     *slog.Logger
}

// ScanOptions controls a single topic scan.
type ScanOptions struct {
	TopK       int
	UseSnippet bool
	// Window is optional; nil keeps every record regardless of timestamp.
	Window *domain.TimeWindow
}

// ScanPipeline retrieves, filters, classifies and ranks headlines for one topic.
type ScanPipeline struct {
	retriever  ports.HeadlineRetriever
	classifier ports.Classifier
	logger     *slog.Logger
}

// NewScanPipeline constructs the per-topic orchestration component.
func NewScanPipeline(deps ScanDeps) *ScanPipeline {
	return &ScanPipeline{
		retriever:  deps.Retriever,
		classifier: deps.Classifier,
		logger:     deps.Logger,
	}
}

// Scan never fails: unavailable sources contribute nothing and an empty result
// carries all-zero counts.
func (p *ScanPipeline) Scan(ctx context.Context, topic domain.TopicSpec, opts ScanOptions) domain.TopicReport {
	report := domain.TopicReport{
		Topic:  topic.Key,
		Ranked: []domain.ScoredHeadline{},
		Counts: domain.NewSentimentCounts(),
	}
	if p.retriever == nil {
		return report
	}

	var records []domain.HeadlineRecord
	for _, res := range p.retriever.Retrieve(ctx, topic) {
		report.Sources++
		if !res.OK() {
			report.Failed++
			continue
		}
		for _, rec := range res.Records {
			if rec.Valid() {
				records = append(records, rec)
			}
		}
	}
	report.Retrieved = len(records)

	records = Dedupe(records)
	report.Unique = len(records)

	records = FilterWindow(records, opts.Window)
	report.Survived = len(records)

	scored := make([]domain.ScoredHeadline, 0, len(records))
	for _, rec := range records {
		text, used := scoringText(rec, opts.UseSnippet)
		result := p.classify(ctx, text)
		report.Counts.Add(result.Label)

		scored = append(scored, domain.ScoredHeadline{
			Topic:        topic.Key,
			Title:        textclean.Clean(rec.Title),
			Link:         textclean.Clean(rec.Link),
			Source:       textclean.Clean(rec.Source),
			Author:       textclean.Clean(rec.Author),
			PublishedRaw: textclean.Clean(rec.PublishedRaw),
			PublishedAt:  rec.PublishedAt,
			Label:        result.Label,
			Confidence:   result.Confidence,
			Used:         used,
		})
	}

	RankHeadlines(scored)
	report.Ranked = Truncate(scored, opts.TopK)

	p.debug("topic scanned",
		"topic", topic.Key,
		"sources", report.Sources,
		"failed", report.Failed,
		"retrieved", report.Retrieved,
		"unique", report.Unique,
		"survived", report.Survived,
		"ranked", len(report.Ranked),
	)
	return report
}

func (p *ScanPipeline) classify(ctx context.Context, text string) domain.SentimentResult {
	if p.classifier == nil {
		return domain.SentimentResult{Label: domain.Neutral}
	}
	return p.classifier.Classify(ctx, text)
}

func (p *ScanPipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func scoringText(rec domain.HeadlineRecord, useSnippet bool) (string, domain.TextUsage) {
	summary := strings.TrimSpace(rec.Summary)
	if useSnippet && summary != "" {
		return rec.Title + ". " + summary, domain.UsedTitleSnippet
	}
	return rec.Title, domain.UsedTitleOnly
}

// Dedupe keeps the first record per trimmed link and drops records without one.
// Applying it twice yields the same result as once.
func Dedupe(records []domain.HeadlineRecord) []domain.HeadlineRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.HeadlineRecord, 0, len(records))
	for _, rec := range records {
		key := strings.TrimSpace(rec.Link)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// FilterWindow keeps records whose timestamp lies inside window. With an active
// window, records without a parsed timestamp are dropped.
func FilterWindow(records []domain.HeadlineRecord, window *domain.TimeWindow) []domain.HeadlineRecord {
	if window == nil {
		return records
	}
	out := make([]domain.HeadlineRecord, 0, len(records))
	for _, rec := range records {
		if rec.PublishedAt == nil || !window.Contains(*rec.PublishedAt) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// RankHeadlines sorts in place: confidence descending, then newest first with
// undated headlines last, then link ascending.
func RankHeadlines(items []domain.ScoredHeadline) {
	slices.SortStableFunc(items, func(a, b domain.ScoredHeadline) int {
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		switch {
		case a.PublishedAt != nil && b.PublishedAt != nil:
			if c := b.PublishedAt.Compare(*a.PublishedAt); c != 0 {
				return c
			}
		case a.PublishedAt != nil:
			return -1
		case b.PublishedAt != nil:
			return 1
		}
		return strings.Compare(a.Link, b.Link)
	})
}

// Truncate returns at most n leading items; n <= 0 yields an empty slice.
func Truncate(items []domain.ScoredHeadline, n int) []domain.ScoredHeadline {
	if n <= 0 {
		return []domain.ScoredHeadline{}
	}
	if len(items) > n {
		items = items[:n]
	}
	return slices.Clip(items)
}
