// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/termo/internal/cache"
	"github.com/jason-s-yu/termo/internal/config"
	"github.com/jason-s-yu/termo/internal/game"
	"github.com/jason-s-yu/termo/internal/handlers"
	"github.com/jason-s-yu/termo/internal/logging"
	"github.com/jason-s-yu/termo/internal/room"
	"github.com/jason-s-yu/termo/internal/session"
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

	words, err := game.LoadWordList(cfg.Game.WordsFile)
	if err != nil {
		logger.Fatalf("word list: %v", err)
	}
	logger.WithFields(logrus.Fields{"words": words.Size(), "length": words.Len()}).Info("word list loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := room.NewRegistry(
		room.WithCodeRetries(cfg.Game.CodeRetries),
		room.WithLogger(logger),
	)

	opts := []session.Option{session.WithLogger(logger)}
	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		opts = append(opts, session.WithWinPublisher(cache.NewWinPublisher(rdb, cfg.Redis.Queue)))
		logger.WithField("queue", cfg.Redis.Queue).Info("publishing wins to redis")
	}
	handler := session.NewHandler(registry, words, opts...)

	hub := handlers.NewHub(logger)
	ws := handlers.NewWSServer(handler, hub, handlers.WSOptions{
		PingInterval:   cfg.WebSocket.PingInterval,
		WriteTimeout:   cfg.WebSocket.WriteTimeout,
		OutboxSize:     cfg.WebSocket.OutboxSize,
		OriginPatterns: cfg.WebSocket.OriginPatterns,
	}, logger)
	api := handlers.NewAPI(registry, words, logger)

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     handlers.NewRouter(api, ws, cfg.Server.AllowedOrigins, logger),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout is left to the WebSocket write pump; a server-wide
		// deadline would cut long-lived sockets.
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}
}
