package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"MarketBriefing/internal/config"
	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/infrastructure/feed"
	"MarketBriefing/internal/infrastructure/ml"
	"MarketBriefing/internal/infrastructure/quiver"
	"MarketBriefing/internal/infrastructure/scheduler"
	"MarketBriefing/internal/infrastructure/sec"
	"MarketBriefing/internal/infrastructure/storage"
	"MarketBriefing/internal/infrastructure/telegram"
	"MarketBriefing/internal/logging"
	"MarketBriefing/internal/ports"
	"MarketBriefing/internal/report"
	"MarketBriefing/internal/scanner"
	"MarketBriefing/internal/sentiment"
	"MarketBriefing/internal/usecase"
)

// ClearScreen is the ANSI sequence written before the report with --clear.
const ClearScreen = "\033[H\033[2J"

const stopTimeout = 10 * time.Second

// RunOptions holds the per-invocation choices of the command line.
type RunOptions struct {
	Mode  usecase.Mode
	TopK  int
	Clear bool
	// Now overrides the reference time; zero means time.Now.
	Now time.Time
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	out        io.Writer
	classifier *sentiment.Classifier
	assembler  *usecase.Assembler
	store      *storage.SQLStore
	archive    *report.Archive
	notifier   ports.Notifier
}

// Deps overrides adapters, mostly for tests. Zero values build the real ones.
type Deps struct {
	Logger    *slog.Logger
	Out       io.Writer
	Retriever ports.HeadlineRetriever
	Insiders  ports.InsiderSource
	Congress  ports.CongressSource
	Notifier  ports.Notifier
}

// New builds a runnable application. It fails only on an invalid topic list or
// an unreachable configured database.
func New(ctx context.Context, cfg config.Config, deps Deps) (*Application, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}

	registry, err := cfg.TopicRegistry()
	if err != nil {
		return nil, err
	}

	a := &Application{cfg: cfg, logger: logger, out: out}

	var cache ports.LookupCache
	if cfg.Database.DSN != "" {
		store, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate storage: %w", err)
		}
		a.store = store
		cache = store
		logger.Info("storage enabled", "dialect", storage.DialectFor(cfg.Database.DSN).String())
	}

	httpClient := &http.Client{Timeout: cfg.Scan.RequestTimeout()}

	var model ports.SentimentModel
	if cfg.Sentiment.Endpoint != "" {
		model = ml.NewClient(cfg.Sentiment.Endpoint, cfg.Sentiment.APIKey, cfg.Sentiment.Model, cfg.Scan.RequestTimeout())
	}
	a.classifier = sentiment.NewClassifier(model, logger.With("component", "sentiment"))

	retriever := deps.Retriever
	if retriever == nil {
		fetcher := feed.NewFetcher(httpClient, cfg.Scan.UserAgent, cfg.Scan.MaxItemsPerFeed)
		strategies := scanner.NewRegistry()
		strategies.Register(feed.NewGoogleNewsScanner(fetcher))
		strategies.Register(feed.NewRSSScanner(fetcher))
		retriever = feed.NewTopicSource(strategies, cfg.Scan.MaxItemsPerFeed, logger.With("component", "source"))
	}

	pipeline := usecase.NewScanPipeline(usecase.ScanDeps{
		Retriever:  retriever,
		Classifier: a.classifier,
		Logger:     logger.With("component", "scan"),
	})

	insiders := deps.Insiders
	if insiders == nil && cfg.Disclosures.SECUserAgent != "" {
		insiders = sec.NewClient(cfg.Disclosures.SECUserAgent, httpClient, cache)
	}
	congress := deps.Congress
	if congress == nil && cfg.Disclosures.QuiverAPIKey != "" {
		congress = quiver.NewClient(cfg.Disclosures.QuiverAPIKey, httpClient)
	}

	a.assembler = usecase.NewAssembler(usecase.AssemblerDeps{
		Topics:   registry,
		Scanner:  pipeline,
		Insiders: insiders,
		Congress: congress,
		Disclosures: usecase.DisclosureOptions{
			TickersPerTopic:  cfg.Disclosures.TickersPerTopic,
			FilingsPerTicker: cfg.Disclosures.FilingsPerTicker,
			TradeLimit:       cfg.Disclosures.TradeLimit,
		},
		Location:       cfg.Location(),
		UseSnippet:     cfg.Scan.UseSnippets,
		ClassifierMode: func() string { return a.classifier.Mode().String() },
		Logger:         logger.With("component", "briefing"),
	})

	if cfg.Report.SaveDailyLog {
		a.archive = report.NewArchive(cfg.Report.LogDir, cfg.Report.KeepLogDays)
	}

	a.notifier = deps.Notifier
	if a.notifier == nil && cfg.Notifications.Telegram.Enabled() {
		a.notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	return a, nil
}

// Run produces one briefing and writes it to the output. Archive, storage and
// notification failures are logged and do not fail the run.
func (a *Application) Run(ctx context.Context, opts RunOptions) error {
	a.classifier.Init(ctx)

	b, err := a.assembler.Build(ctx, usecase.BuildRequest{Mode: opts.Mode, Now: opts.Now, TopK: opts.TopK})
	if err != nil {
		return fmt.Errorf("build briefing: %w", err)
	}

	text := report.Format(b, opts.TopK)
	if opts.Clear {
		if _, err := io.WriteString(a.out, ClearScreen); err != nil {
			return fmt.Errorf("clear screen: %w", err)
		}
	}
	if _, err := io.WriteString(a.out, text); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	a.persist(ctx, b, text)
	return nil
}

func (a *Application) persist(ctx context.Context, b domain.Briefing, text string) {
	if a.archive != nil {
		path, err := a.archive.Append(b.GeneratedAt, text)
		if err != nil {
			a.logger.Warn("archive briefing", "error", err)
		} else {
			a.logger.Debug("briefing archived", "path", path)
		}
	}

	if a.store != nil {
		if err := a.store.SaveBriefing(ctx, b); err != nil {
			a.logger.Warn("save briefing", "error", err)
		}
	}

	if a.notifier != nil {
		if err := a.notifier.PublishDigest(ctx, report.Digest(b)); err != nil {
			a.logger.Warn("publish digest", "error", err)
		}
	}
}

// Serve runs a briefing on every tick of the cron spec until ctx is done.
func (a *Application) Serve(ctx context.Context, spec string, opts RunOptions) error {
	driver := scheduler.NewCronScheduler(spec, a.cfg.Location())
	next, err := driver.Next(time.Now())
	if err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, func(ctx context.Context, trigger time.Time) error {
		run := opts
		run.Now = trigger
		return a.Run(ctx, run)
	}, func(err error) {
		a.logger.Error("scheduled briefing failed", "error", err)
	})

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "schedule", spec, "next", next.Format(time.RFC3339))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("scheduler stopped")
	return nil
}

// Close releases the store, if any.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
