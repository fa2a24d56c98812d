package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/ports"
	"MarketBriefing/internal/topics"
)

const (
	// HighlightCount is the size of the cross-topic highlight list.
	HighlightCount = 8
	// MinScanTopK keeps enough candidates per topic regardless of display size.
	MinScanTopK = 10
)

// DisclosureOptions bounds the supplementary SEC and congressional lookups.
type DisclosureOptions struct {
	TickersPerTopic  int
	FilingsPerTicker int
	TradeLimit       int
}

// AssemblerDeps wires the assembler.
type AssemblerDeps struct {
	Topics      *topics.Registry
	Scanner     *ScanPipeline
	Insiders    ports.InsiderSource
	Congress    ports.CongressSource
	Disclosures DisclosureOptions
	Location    *time.Location
	UseSnippet  bool
	// ClassifierMode reports which sentiment path served the run.
	ClassifierMode func() string
	Logger         *slog.Logger
}

// BuildRequest selects mode, reference time and display size of one briefing.
type BuildRequest struct {
	Mode Mode
	Now  time.Time
	TopK int
}

// Assembler assembles per-topic scans into a single report.
type Assembler struct {
	topics      *topics.Registry
	scanner     *ScanPipeline
	insiders    ports.InsiderSource
	congress    ports.CongressSource
	disclosures DisclosureOptions
	location    *time.Location
	useSnippet  bool
	modeFn      func() string
	logger      *slog.Logger
}

// NewAssembler constructs the assembler; the location defaults to UTC.
func NewAssembler(deps AssemblerDeps) *Assembler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	opts := deps.Disclosures
	if opts.TickersPerTopic <= 0 {
		opts.TickersPerTopic = 3
	}
	if opts.FilingsPerTicker <= 0 {
		opts.FilingsPerTicker = 2
	}
	if opts.TradeLimit <= 0 {
		opts.TradeLimit = 50
	}
	return &Assembler{
		topics:      deps.Topics,
		scanner:     deps.Scanner,
		insiders:    deps.Insiders,
		congress:    deps.Congress,
		disclosures: opts,
		location:    loc,
		useSnippet:  deps.UseSnippet,
		modeFn:      deps.ClassifierMode,
		logger:      deps.Logger,
	}
}

// Build scans every topic in registry order. Only an invalid mode or a missing
// topic registry is an error; everything else degrades inside the report.
func (b *Assembler) Build(ctx context.Context, req BuildRequest) (domain.Briefing, error) {
	if b.topics == nil {
		return domain.Briefing{}, fmt.Errorf("topic registry is not configured")
	}
	if b.scanner == nil {
		return domain.Briefing{}, fmt.Errorf("scan pipeline is not configured")
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(b.location)

	window, label, err := WindowFor(req.Mode, now, b.location)
	if err != nil {
		return domain.Briefing{}, fmt.Errorf("derive window: %w", err)
	}

	out := domain.Briefing{
		GeneratedAt: now,
		Mode:        string(req.Mode),
		WindowLabel: label,
		Window:      window,
		Totals:      domain.NewSentimentCounts(),
	}

	opts := ScanOptions{
		TopK:       max(req.TopK, MinScanTopK),
		UseSnippet: b.useSnippet,
		Window:     window,
	}

	var all []domain.ScoredHeadline
	for _, topic := range b.topics.All() {
		report := b.scanner.Scan(ctx, topic, opts)
		out.Topics = append(out.Topics, report)
		out.Totals.Merge(report.Counts)
		all = append(all, report.Ranked...)
	}

	// Re-rank a copy so per-topic slices keep their own order.
	merged := append([]domain.ScoredHeadline(nil), all...)
	RankHeadlines(merged)
	out.Highlights = Truncate(merged, HighlightCount)

	if b.modeFn != nil {
		out.ClassifierMode = b.modeFn()
	}

	out.Insiders = b.insiderSection(ctx)
	out.Politicians = b.congressSection(ctx)

	b.info("briefing assembled",
		"mode", out.Mode,
		"window", out.WindowLabel,
		"topics", len(out.Topics),
		"items", out.ItemCount(),
		"highlights", len(out.Highlights),
	)
	return out, nil
}

func (b *Assembler) insiderSection(ctx context.Context) domain.DisclosureSection[domain.InsiderFiling] {
	var section domain.DisclosureSection[domain.InsiderFiling]
	if b.insiders == nil {
		section.Notice = []string{
			"No data pulled. To enable SEC Form 4 lookups, set SEC_USER_AGENT in your environment.",
			`Example (macOS/zsh): export SEC_USER_AGENT="Your Name you@example.com"`,
		}
		return section
	}

	var firstErr error
	for _, topic := range b.topics.All() {
		tickers := topic.Tickers
		if len(tickers) > b.disclosures.TickersPerTopic {
			tickers = tickers[:b.disclosures.TickersPerTopic]
		}
		for _, ticker := range tickers {
			if ctx.Err() != nil {
				break
			}
			filings, err := b.insiders.RecentFilings(ctx, ticker, b.disclosures.FilingsPerTicker)
			if err != nil {
				b.warn("skip insider lookup", "topic", topic.Key, "ticker", ticker, "err", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			for _, f := range filings {
				f.Topic = topic.Key
				section.Items = append(section.Items, f)
			}
		}
	}

	if len(section.Items) == 0 && firstErr != nil {
		section.Notice = noticeLines("SEC lookups failed: ", firstErr)
	}
	return section
}

func (b *Assembler) congressSection(ctx context.Context) domain.DisclosureSection[domain.CongressTrade] {
	var section domain.DisclosureSection[domain.CongressTrade]
	if b.congress == nil {
		section.Notice = []string{
			"No data pulled. To enable Quiver, set QUIVER_API_KEY in your environment.",
			"Example (macOS/zsh): export QUIVER_API_KEY='your_key_here'",
		}
		return section
	}

	topicOf := map[string]string{}
	var tickers []string
	for _, topic := range b.topics.All() {
		for _, t := range topic.Tickers {
			t = strings.ToUpper(t)
			if _, ok := topicOf[t]; ok {
				continue
			}
			topicOf[t] = topic.Key
			tickers = append(tickers, t)
		}
	}

	trades, err := b.congress.RecentTrades(ctx, tickers, b.disclosures.TradeLimit)
	if err != nil {
		b.warn("skip congress trades", "err", err)
		section.Notice = noticeLines("Quiver request failed: ", err)
		return section
	}
	for _, tr := range trades {
		tr.Topic = topicOf[strings.ToUpper(tr.Ticker)]
		section.Items = append(section.Items, tr)
	}
	return section
}

func noticeLines(prefix string, err error) []string {
	var lines []string
	for i, l := range strings.Split(err.Error(), "\n") {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		if i == 0 {
			l = prefix + l
		}
		lines = append(lines, l)
	}
	return lines
}

func (b *Assembler) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Assembler) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}
