// cmd/historian/main.go is an asynchronous historian service that pops win
// records from the Redis queue and archives them in PostgreSQL.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/termo/internal/cache"
	"github.com/jason-s-yu/termo/internal/config"
	"github.com/jason-s-yu/termo/internal/database"
	"github.com/jason-s-yu/termo/internal/historian"
	"github.com/jason-s-yu/termo/internal/logging"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer pool.Close()

	archive := database.NewWinArchive(pool)
	if err := archive.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	svc := historian.NewService(rdb, archive, historian.Options{
		Queue:         cfg.Redis.Queue,
		BatchSize:     cfg.Historian.BatchSize,
		FlushInterval: cfg.Historian.FlushInterval,
		PopTimeout:    cfg.Historian.PopTimeout,
	}, logger)

	// Blocks until a signal cancels ctx.
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
