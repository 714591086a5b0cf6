// Command import refreshes the local quota mirror for a date range without
// going through the HTTP server. Useful for the initial backfill and for
// cron-driven refreshes.
//
// Usage:
//
//	go run ./cmd/import -from 2026-06-01 -to 2026-09-01
//
// Dates accept both 2006-01-02 and 02.01.2006.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hutsync/internal/hrs"
	"hutsync/internal/quotas"
	"hutsync/internal/shared/config"
	"hutsync/internal/shared/database"
	"hutsync/pkg/cache"
	"hutsync/pkg/logger"
	"hutsync/pkg/retry"

	"github.com/joho/godotenv"
)

func main() {
	var (
		fromFlag = flag.String("from", "", "start of the import range (inclusive)")
		toFlag   = flag.String("to", "", "end of the import range (exclusive)")
		timeout  = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	log := logger.GetDefault()

	if *fromFlag == "" || *toFlag == "" {
		fmt.Fprintln(os.Stderr, "both -from and -to are required")
		flag.Usage()
		os.Exit(2)
	}

	from, err := hrs.ParseDate(*fromFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(2)
	}
	to, err := hrs.ParseDate(*toFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	client := hrs.NewClient(hrs.Config{
		BaseURL:       cfg.HRS.BaseURL,
		Username:      cfg.HRS.Username,
		Password:      cfg.HRS.Password,
		HutID:         cfg.HRS.HutID,
		Timeout:       cfg.HRS.RequestTimeout,
		SessionTTL:    cfg.Redis.SessionTTL,
		PageSize:      cfg.HRS.PageSize,
		MutationPause: cfg.HRS.MutationPause,
	})
	client.SetRetryPolicy(retry.Policy{
		MaxAttempts: cfg.HRS.RetryMaxAttempts,
		Backoff:     retry.ExponentialBackoff(cfg.HRS.RetryBackoff, 10*time.Second),
	})

	svc := quotas.NewService(client, quotas.NewRepository(db.GetMySQL()), cfg.HRS.SafetyMarginDays)
	if rdb := db.GetRedis(); rdb != nil {
		cacheService := cache.NewService(rdb)
		svc.SetCacheService(cacheService)
		client.SetSessionStore(hrs.NewRedisSessionStore(cacheService, cfg.HRS.HutID, cfg.Redis.SessionTTL))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := svc.ImportRange(ctx, from, to)
	if err != nil {
		log.Error("import failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("import finished",
		slog.String("run_id", result.RunID),
		slog.Int("records", result.Records),
		slog.String("from", result.DateFrom),
		slog.String("to", result.DateTo),
	)
}
