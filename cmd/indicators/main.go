// Package main computes the stock indicator snapshot for one depot and
// prints it, optionally as a zstd-compressed archive record for report
// tooling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	appctx "medistock/internal/core/context"
	"medistock/internal/core/id"
	"medistock/internal/domain/stock"
	"medistock/internal/infrastructure/archive"
	"medistock/internal/infrastructure/storage/postgres"
	"medistock/internal/infrastructure/storage/postgres/stock_repo"
	"medistock/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var (
		depotArg   = flag.String("depot", "", "depot uuid (required)")
		asOfArg    = flag.String("as-of", "", "snapshot date, RFC 3339 (default: now)")
		archiveArg = flag.Bool("archive", false, "emit a compressed archive record instead of plain JSON")
	)
	flag.Parse()

	depotID, err := id.Parse(*depotArg)
	if err != nil {
		log.Fatalw("invalid or missing -depot", "error", err)
	}

	asOf := time.Now().UTC()
	if *asOfArg != "" {
		asOf, err = time.Parse(time.RFC3339, *asOfArg)
		if err != nil {
			log.Fatalw("invalid -as-of date", "error", err)
		}
	}

	// One trace context per run, so every log line of this invocation
	// carries the same trace and request ids.
	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext())
	ctx = logger.WithLogger(ctx, log)

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	service := stock.NewService(
		stock_repo.NewLotRepo(pool),
		stock_repo.NewMovementRepo(pool),
		stock_repo.NewTransferRepo(pool),
		stock_repo.NewSettingsRepo(pool),
		stock_repo.NewConsumptionRepo(pool),
	)

	snapshot, err := service.DepotSnapshot(ctx, depotID, asOf)
	if err != nil {
		log.Fatalw("failed to compute depot snapshot", "depot_id", depotID, "error", err)
	}
	postgres.LogPoolStats(ctx, pool.Unwrap())

	if *archiveArg {
		archiver, err := archive.New()
		if err != nil {
			log.Fatalw("failed to create archiver", "error", err)
		}
		if err := archiver.WriteTo(os.Stdout, snapshot); err != nil {
			log.Fatalw("failed to write archive record", "error", err)
		}
		return
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		log.Fatalw("failed to encode snapshot", "error", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
