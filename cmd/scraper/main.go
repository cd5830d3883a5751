package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/shopee-product-scraper/internal/artifact"
	"github.com/maltedev/shopee-product-scraper/internal/browser"
	"github.com/maltedev/shopee-product-scraper/internal/captcha"
	"github.com/maltedev/shopee-product-scraper/internal/config"
	"github.com/maltedev/shopee-product-scraper/internal/database"
	"github.com/maltedev/shopee-product-scraper/internal/detector"
	"github.com/maltedev/shopee-product-scraper/internal/events"
	"github.com/maltedev/shopee-product-scraper/internal/extension"
	"github.com/maltedev/shopee-product-scraper/internal/login"
	"github.com/maltedev/shopee-product-scraper/internal/proxy"
	"github.com/maltedev/shopee-product-scraper/internal/scraper"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.Scraper.Proxies) == 0 {
		logger.Error("no proxies configured; set CUSTOM_PROXY_SERVER or GEONODE_PROXY_*")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutdown signal received, cancelling run")
		cancel()
	}()

	artifacts, err := artifact.NewStore(cfg.Scraper.ArtifactDir)
	if err != nil {
		logger.Error("failed to prepare artifact directory", "error", err)
		os.Exit(1)
	}

	// The solver extension is optional; without it captcha resolution
	// depends entirely on a human at the browser.
	extensionPath := ""
	if cfg.Captcha.ExtensionDir != "" {
		solver := extension.NewSolver(cfg.Captcha.ExtensionDir, cfg.Captcha.APIKey)
		extensionPath, err = solver.Load(os.TempDir())
		if err != nil {
			logger.Error("failed to load captcha extension", "error", err)
			os.Exit(1)
		}
		logger.Info("captcha extension loaded", "path", extensionPath)
	}

	launcher := browser.NewLauncher(&browser.Options{
		Headless:      cfg.Browser.Headless,
		UserDataDir:   cfg.Browser.UserDataDir,
		ExtensionPath: extensionPath,
		LaunchTimeout: cfg.Browser.LaunchTimeout,
	}, logger)

	timeouts := login.DefaultTimeouts()
	timeouts.Popup = cfg.Login.PopupWait
	timeouts.Field = cfg.Login.FieldWait
	timeouts.Manual = cfg.Login.ManualWait

	deps := scraper.Deps{
		Rotator:   proxy.NewRotator(cfg.Scraper.Proxies),
		Launcher:  launcher,
		Login:     login.New(cfg.Login.Email, cfg.Login.Password, timeouts, logger),
		Captcha:   captcha.NewProtocol(cfg.Captcha.Wait, logger),
		Detector:  detector.New(cfg.Scraper.TargetDomain, logger),
		Artifacts: artifacts,
		Sinks:     buildSinks(ctx, cfg, logger),
	}

	opts := scraper.Options{
		MaxAttempts:        cfg.Scraper.MaxAttempts,
		NavTimeout:         cfg.Scraper.NavTimeout,
		PostNavSettle:      cfg.Scraper.PostNavSettle,
		PostLoginSettleMin: cfg.Scraper.PostLoginSettleMin,
		PostLoginSettleMax: cfg.Scraper.PostLoginSettleMax,
	}

	svc := scraper.NewService(deps, opts, logger)

	logger.Info("starting scrape run",
		"target_url", cfg.Scraper.TargetURL,
		"max_attempts", cfg.Scraper.MaxAttempts,
		"proxies", len(cfg.Scraper.Proxies))

	record, report, err := svc.Run(ctx, cfg.Scraper.TargetURL)

	if report != nil {
		if _, saveErr := artifacts.SaveReport(report); saveErr != nil {
			logger.Warn("failed to save run report", "error", saveErr)
		}
	}

	switch {
	case err == nil:
		logger.Info("scrape succeeded",
			"run_id", report.RunID,
			"attempts", len(report.Attempts),
			"title", record.Title,
			"price", record.Price)
	case errors.Is(err, scraper.ErrAttemptsExhausted):
		logger.Error("scrape failed: all attempts exhausted",
			"run_id", report.RunID, "attempts", len(report.Attempts))
		os.Exit(1)
	case errors.Is(err, context.Canceled):
		logger.Info("scrape cancelled", "run_id", report.RunID)
		os.Exit(1)
	default:
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}
}

// buildSinks wires the optional telemetry backends. Either can be absent;
// the run itself never depends on them.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) []scraper.Sink {
	var sinks []scraper.Sink

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Warn("database unavailable, attempt history disabled", "error", err)
		} else {
			store := database.NewAttemptStore(db, logger)
			if err := store.EnsureSchema(ctx); err != nil {
				logger.Warn("failed to ensure attempts schema", "error", err)
			} else {
				sinks = append(sinks, store)
			}
		}
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, event publishing disabled", "error", err)
		} else {
			sinks = append(sinks, events.NewPublisher(client, cfg.Redis.Stream, logger))
		}
	}

	return sinks
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
