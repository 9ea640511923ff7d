package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/adapters/events"
	"github.com/layer-3/walletgate/adapters/store"
	"github.com/layer-3/walletgate/adapters/tokenizer"
	"github.com/layer-3/walletgate/internal/config"
	"github.com/layer-3/walletgate/internal/metrics"
	"github.com/layer-3/walletgate/ports"
	"github.com/layer-3/walletgate/service"
	transport "github.com/layer-3/walletgate/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

// app is the wired service with everything that needs closing on shutdown
type app struct {
	router  *gin.Engine
	limiter *transport.RateLimiter
	closers []func() error
	logger  *slog.Logger
}

func (a *app) Close() {
	a.limiter.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	gin.SetMode(gin.ReleaseMode)

	a := &app{logger: logger}
	ok := false
	defer func() {
		if !ok {
			for i := len(a.closers) - 1; i >= 0; i-- {
				_ = a.closers[i]()
			}
		}
	}()

	sec, err := loadSecret(cfg, logger)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.Close)

	eventPub, err := openEvents(cfg, logger, a)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.NewJWTTokenizer(sec.SigningKey())
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	nonces := service.NewNonceDeriver(sec.NonceKey(), logger)
	authService := service.NewAuthService(
		nonces,
		service.NewSignatureVerifier(nonces, logger),
		tok,
		eventPub,
		service.WithLogger(logger),
	)

	var recorder metrics.Recorder = metrics.Nop{}
	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(reg)
		gatherer = reg
	}

	a.limiter = transport.NewRateLimiter(transport.RateLimiterConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	}, recorder, logger)

	a.router = transport.SetupRouter(transport.RouterDeps{
		AuthService:    authService,
		Store:          st,
		Logger:         logger,
		Recorder:       recorder,
		Gatherer:       gatherer,
		MetricsPath:    cfg.Metrics.Path,
		Limiter:        a.limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,

		CommentsEnabled: cfg.Comments.Enabled,
	})

	ok = true
	return a, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (ports.Store, error) {
	switch cfg.Store.Driver {
	case "redis":
		opts, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse store redis URL: %w", err)
		}
		return store.NewRedisStore(redis.NewClient(opts)), nil
	case "sqlite":
		st, err := store.NewSQLiteStore(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// openEvents returns nil when login events are disabled
func openEvents(cfg *config.Config, logger *slog.Logger, a *app) (ports.EventPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger.With("component", "events"))

	switch cfg.Events.Driver {
	case "gochannel":
		pubsub := events.NewGoChannel(wmLogger)
		a.closers = append(a.closers, pubsub.Close)
		return events.NewWatermillPublisher(pubsub, cfg.Events.Topic), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.Events.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse events redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)

		publisher, err := events.NewRedisStreamPublisher(client, wmLogger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, publisher.Close)
		return events.NewWatermillPublisher(publisher, cfg.Events.Topic), nil
	default:
		return nil, nil
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("walletgate listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "events", cfg.Events.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
