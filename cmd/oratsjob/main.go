package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantops/oratsfeed/internal/config"
	"github.com/quantops/oratsfeed/internal/dates"
	"github.com/quantops/oratsfeed/internal/db"
	"github.com/quantops/oratsfeed/internal/job"
	"github.com/quantops/oratsfeed/internal/logging"
	"github.com/quantops/oratsfeed/internal/orats"
	"github.com/quantops/oratsfeed/internal/repository"
)

// Exit codes, kept stable for the scheduler that wraps this job.
const (
	exitOK           = 0
	exitFailure      = 1
	exitMissingToken = 2
	exitNoSourceDate = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	storedDateFlag := flag.String("date", "", "stored trade date YYYY-MM-DD (default: next business day from today)")
	sourceDateFlag := flag.String("source-date", "", "source trade date YYYY-MM-DD (default: most recent session with data)")
	tokenFlag := flag.String("token", "", "ORATS API token (overrides ORATS_TOKEN)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return exitFailure
	}
	if *tokenFlag != "" {
		cfg.OratsToken = *tokenFlag
	}

	log, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	if cfg.OratsToken == "" {
		log.Error("ORATS_TOKEN is not set")
		return exitMissingToken
	}
	if err := cfg.Validate(); err != nil {
		log.Error(err.Error())
		return exitFailure
	}

	overrides, err := parseOverrides(*storedDateFlag, *sourceDateFlag)
	if err != nil {
		log.Error(err.Error())
		return exitFailure
	}

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		log.Errorw("load reference timezone", "error", err)
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Errorw("database connection failed", "error", err)
		return exitFailure
	}
	defer pool.Close()

	client := orats.NewClient(cfg.OratsToken, log, orats.Options{BaseURL: cfg.OratsBaseURL})
	repo := repository.NewGexRepo(pool)

	runner := job.NewRunner(job.Params{
		Ticker:       cfg.Ticker,
		ProxyTicker:  cfg.ProxyTicker,
		DTEMax:       cfg.DTEMax,
		Multiplier:   cfg.ContractMultiplier,
		LookbackDays: cfg.LookbackDays,
	}, client, repo, loc, log)

	if err := runner.Run(ctx, time.Now(), overrides); err != nil {
		log.Errorw("run failed", "error", err)
		if errors.Is(err, dates.ErrNoSourceDate) {
			return exitNoSourceDate
		}
		return exitFailure
	}
	return exitOK
}

func parseOverrides(storedDate, sourceDate string) (dates.Overrides, error) {
	var o dates.Overrides
	if storedDate != "" {
		d, err := time.ParseInLocation("2006-01-02", storedDate, time.UTC)
		if err != nil {
			return o, fmt.Errorf("invalid -date %q: %w", storedDate, err)
		}
		o.StoredDate = &d
	}
	if sourceDate != "" {
		d, err := time.ParseInLocation("2006-01-02", sourceDate, time.UTC)
		if err != nil {
			return o, fmt.Errorf("invalid -source-date %q: %w", sourceDate, err)
		}
		o.SourceDate = &d
	}
	return o, nil
}
