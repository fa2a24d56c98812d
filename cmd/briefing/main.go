package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"MarketBriefing/internal/app"
	"MarketBriefing/internal/config"
	"MarketBriefing/internal/logging"
	"MarketBriefing/internal/usecase"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("briefing", flag.ContinueOnError)
	modeFlag := fs.String("mode", cfg.Scan.Mode, "window mode: auto, preopen or last24")
	topK := fs.Int("topk", cfg.Scan.TopK, "headlines shown per topic")
	clearScreen := fs.Bool("clear", false, "clear the terminal before printing")
	schedule := fs.String("schedule", cfg.Scheduler.CronExpression, "cron expression for recurring briefings")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	mode, err := usecase.ParseMode(*modeFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if *topK < 0 {
		fmt.Fprintln(os.Stderr, "--topk must not be negative")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(ctx, cfg, app.Deps{Logger: logger})
	if err != nil {
		logger.Error("application setup failed", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	opts := app.RunOptions{Mode: mode, TopK: *topK, Clear: *clearScreen}
	if *schedule != "" {
		err = application.Serve(ctx, *schedule, opts)
	} else {
		err = application.Run(ctx, opts)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("briefing stopped", "error", err)
		return 1
	}
	return 0
}
