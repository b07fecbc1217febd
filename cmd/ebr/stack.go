package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/config"
	"github.com/ebrhq/backoffice/internal/crypto"
	"github.com/ebrhq/backoffice/internal/journal"
	"github.com/ebrhq/backoffice/internal/kv"
	"github.com/ebrhq/backoffice/internal/metrics"
	"github.com/ebrhq/backoffice/internal/onboarding"
)

// stack is the wiring shared by serve and the operator commands.
type stack struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     kv.Store
	pool      *pgxpool.Pool
	redis     *redis.Client
	client    *backend.Client
	collector *journal.Collector
	metrics   *metrics.Metrics

	flushed chan struct{}
}

// openStack connects the configured store, the upstream client and the
// onboarding journal. m may be nil.
func openStack(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*stack, error) {
	s := &stack{cfg: cfg, logger: logger, metrics: m, flushed: make(chan struct{})}

	var err error
	switch cfg.Store.Driver {
	case config.DriverMemory:
		s.store = kv.NewMemory()
	case config.DriverFile:
		s.store = kv.NewFile(cfg.Store.Path)
	case config.DriverPostgres:
		if s.pool, err = connectDB(ctx, cfg); err != nil {
			return nil, err
		}
		s.store = kv.NewPostgres(s.pool)
	case config.DriverRedis:
		if s.redis, err = kv.DialRedis(ctx, cfg.Store.RedisURL); err != nil {
			return nil, err
		}
		s.store = kv.NewRedis(s.redis, cfg.Store.RedisTTL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.EncryptionKey != "" {
		cipher, err := crypto.NewCipher(cfg.Store.EncryptionKey)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("store encryption key: %w", err)
		}
		s.store = kv.NewSealed(s.store, cipher)
	}

	s.client = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)

	var sink journal.BatchInserter = journal.NewLogSink(logger)
	if s.pool != nil {
		sink = journal.NewStore(s.pool)
	}
	s.collector = journal.NewCollector(sink, cfg.Journal.BatchSize, cfg.Journal.FlushInterval)

	if m != nil {
		s.client.SetObserver(m)
		s.collector.SetObserver(m)
		if s.pool != nil {
			pool := s.pool
			m.RegisterPoolCollector(func() (int32, int32, int32) {
				st := pool.Stat()
				return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
			})
		}
	}

	go func() {
		s.collector.Start(ctx)
		close(s.flushed)
	}()
	return s, nil
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to database")
	return pool, nil
}

// flowDeps returns the orchestrator dependencies common to every console.
func (s *stack) flowDeps() onboarding.Deps {
	deps := onboarding.Deps{
		Auth:          backend.NewAuthAPI(s.client),
		Offers:        backend.NewOffersAPI(s.client),
		Companies:     backend.NewCompaniesAPI(s.client),
		Journal:       s.collector,
		Logger:        s.logger,
		StrictCompany: s.cfg.Forms.StrictCompany,
	}
	if s.metrics != nil {
		deps.Metrics = s.metrics
	}
	return deps
}

// Close flushes the journal and releases connections.
func (s *stack) Close() {
	if s.collector != nil {
		s.collector.Stop()
		<-s.flushed
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// cliLogger writes text logs to stderr: warnings only unless verbose.
func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
