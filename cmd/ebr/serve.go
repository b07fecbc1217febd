package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/api"
	"github.com/ebrhq/backoffice/internal/config"
	"github.com/ebrhq/backoffice/internal/console"
	"github.com/ebrhq/backoffice/internal/metrics"
	"github.com/ebrhq/backoffice/internal/ratelimit"
	"github.com/ebrhq/backoffice/internal/workspace"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eBR console server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverFile {
		slog.Warn("file store is meant for the CLI; browser sessions will share one JSON document", "path", cfg.Store.Path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	st, err := openStack(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer st.Close()

	pool := console.NewPool(console.Deps{
		Store:     st.store,
		Flow:      st.flowDeps(),
		Workspace: workspace.NewServices(st.client),
		Gauge:     m,
		Logger:    logger,
	})
	go pool.Run(ctx, cfg.Session.SweepEvery, cfg.Session.IdleTimeout)

	limiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)
	go pruneLimiter(ctx, limiter, cfg.RateLimit.Window)

	deps := api.RouterDeps{
		Pool:    pool,
		Metrics: m,
		Limiter: limiter,
		Cookie: api.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if st.pool != nil {
		deps.DB = st.pool
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "store", cfg.Store.Driver, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}

// pruneLimiter drops rate limit buckets idle for a whole window.
func pruneLimiter(ctx context.Context, l *ratelimit.Limiter, window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(window); n > 0 {
				slog.Debug("pruned rate limit buckets", "count", n)
			}
		}
	}
}
