package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maltedev/shopee-product-scraper/internal/api"
	"github.com/maltedev/shopee-product-scraper/internal/browser"
	"github.com/maltedev/shopee-product-scraper/internal/captcha"
	"github.com/maltedev/shopee-product-scraper/internal/config"
	"github.com/maltedev/shopee-product-scraper/internal/detector"
	"github.com/maltedev/shopee-product-scraper/internal/extension"
	"github.com/maltedev/shopee-product-scraper/internal/proxy"
	"github.com/maltedev/shopee-product-scraper/internal/scraper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	extensionPath := ""
	if cfg.Captcha.ExtensionDir != "" {
		solver := extension.NewSolver(cfg.Captcha.ExtensionDir, cfg.Captcha.APIKey)
		extensionPath, err = solver.Load(os.TempDir())
		if err != nil {
			logger.Error("failed to load captcha extension", "error", err)
			os.Exit(1)
		}
	}

	launcher := browser.NewLauncher(&browser.Options{
		Headless:      cfg.Browser.Headless,
		UserDataDir:   cfg.Browser.UserDataDir,
		ExtensionPath: extensionPath,
		LaunchTimeout: cfg.Browser.LaunchTimeout,
	}, logger)

	opts := scraper.DefaultOptions()
	opts.NavTimeout = cfg.Scraper.NavTimeout
	opts.PostNavSettle = cfg.Scraper.PostNavSettle
	// The endpoint drives a single session; the first configured proxy is
	// its egress, or none at all.
	if len(cfg.Scraper.Proxies) > 0 {
		opts.DirectProxy = &cfg.Scraper.Proxies[0]
	}

	svc := scraper.NewService(scraper.Deps{
		Launcher: launcher,
		Captcha:  captcha.NewProtocol(cfg.Captcha.Wait, logger),
		Detector: detector.New(cfg.Scraper.TargetDomain, logger),
		Rotator:  proxy.NewRotator(cfg.Scraper.Proxies),
	}, opts, logger)

	handlers := api.NewHandlers(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// A scrape holds the connection through navigation and a possible
	// captcha wait, so the per-request budget has to cover both.
	r.Use(middleware.Timeout(cfg.Scraper.NavTimeout + cfg.Captcha.Wait + time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)
	r.Post("/scrape", handlers.Scrape)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
