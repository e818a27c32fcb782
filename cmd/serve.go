package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/url-insights/internal/api"
	"github.com/JakeFAU/url-insights/internal/cache"
	"github.com/JakeFAU/url-insights/internal/config"
	"github.com/JakeFAU/url-insights/internal/enrich"
	"github.com/JakeFAU/url-insights/internal/fetcher"
	"github.com/JakeFAU/url-insights/internal/insight"
	"github.com/JakeFAU/url-insights/internal/logging"
	"github.com/JakeFAU/url-insights/internal/metrics"
	"github.com/JakeFAU/url-insights/internal/ratelimit"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush on shutdown

	metrics.Init()

	store, err := cache.New(cache.Config{
		Dir:      cfg.Cache.Dir,
		MaxBytes: cfg.Cache.MaxBytes,
	})
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}

	fetch := fetcher.New(fetcher.Config{
		Timeout:       cfg.HTTPTimeout(),
		UserAgent:     cfg.HTTP.UserAgent,
		RespectRobots: cfg.HTTP.RespectRobots,
		PrintableHost: cfg.HTTP.PrintableHost,
	})

	enricher := enrich.New(logger)

	svc := insight.New(insight.Config{
		CacheTTL:       cfg.Cache.TTLSeconds,
		MaxAge:         cfg.Cache.MaxAgeSeconds,
		MaxEnrichChars: cfg.Enrich.MaxChars,
		MaxTextChars:   cfg.Response.MaxTextChars,
		KeywordCount:   cfg.Enrich.KeywordCount,
		Deadline:       cfg.RequestDeadline(),
	}, logger, fetch, enricher, store)

	limiter := ratelimit.New(ratelimit.Config{
		PerMinute:    cfg.RateLimit.PerMinute,
		Burst:        cfg.RateLimit.Burst,
		IdleEviction: time.Duration(cfg.RateLimit.IdleEvictionMinutes) * time.Minute,
	})

	server := api.NewServer(svc, limiter, logger, cfg)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
