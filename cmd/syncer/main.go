package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"hn_reader/internal/app"
	"hn_reader/internal/config"
	"hn_reader/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	logger := app.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = app.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	sched := scheduler.NewScheduler(a.Sync, cfg.Sync.Interval, cfg.Sync.RunTimeout, logger)

	logger.Info("starting hn syncer",
		"source", a.Source.Name(),
		"interval", cfg.Sync.Interval,
		"batch_size", cfg.Sync.BatchSize,
		"once", *once,
	)

	if *once {
		if !sched.RunOnce(ctx) {
			a.Close()
			os.Exit(1)
		}
		return
	}

	if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
		a.Close()
		os.Exit(1)
	}
}
