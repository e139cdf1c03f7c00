package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/mashup/internal/adapters/http"
	natsadapter "github.com/samirrijal/mashup/internal/adapters/nats"
	"github.com/samirrijal/mashup/internal/adapters/news"
	"github.com/samirrijal/mashup/internal/adapters/postgres"
	"github.com/samirrijal/mashup/internal/core/ports"
	"github.com/samirrijal/mashup/internal/core/usecases"
	"github.com/samirrijal/mashup/internal/pkg/config"
	"github.com/samirrijal/mashup/internal/pkg/logging"
	"github.com/samirrijal/mashup/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mashup-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, "mashup-api")

	if cfg.APIKey == "" {
		slog.Warn("API_KEY not set, GET / will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	deps := &http.Dependencies{
		APIKey:    cfg.APIKey,
		Debug:     cfg.Server.Debug,
		StaticDir: cfg.Server.StaticDir,
		DB:        db,
	}

	// NATS lookup events are optional.
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, lookup events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.Broker = pub
			deps.Feed = natsadapter.NewSubscriber(pub.Conn())
		}
	}

	articles := news.New(news.Config{
		FeedURL:         cfg.News.FeedURL,
		FallbackFeedURL: cfg.News.FallbackFeedURL,
		UserAgent:       cfg.News.UserAgent,
		Timeout:         cfg.News.Timeout,
	}, nil)

	deps.News = articles
	deps.Places = usecases.NewPlaceService(postgres.NewPlaceRepo(db), events)
	deps.Articles = usecases.NewArticleService(articles, events)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Mashup API",
	})
	app.Use(recover.New())
	if cfg.Server.Debug {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "debug", cfg.Server.Debug)
		if err := app.Listen(addr); err != nil {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
