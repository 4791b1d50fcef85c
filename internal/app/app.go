package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-bridge/internal/auth"
	"github.com/vovakirdan/wirechat-bridge/internal/config"
	"github.com/vovakirdan/wirechat-bridge/internal/conversation"
	"github.com/vovakirdan/wirechat-bridge/internal/core"
	"github.com/vovakirdan/wirechat-bridge/internal/dispatch"
	"github.com/vovakirdan/wirechat-bridge/internal/engine/local"
	"github.com/vovakirdan/wirechat-bridge/internal/executor"
	"github.com/vovakirdan/wirechat-bridge/internal/listener"
	"github.com/vovakirdan/wirechat-bridge/internal/metrics"
	"github.com/vovakirdan/wirechat-bridge/internal/operation"
	"github.com/vovakirdan/wirechat-bridge/internal/store"
	"github.com/vovakirdan/wirechat-bridge/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-bridge/internal/transport/http"
)

// App wires together the engine, the lifecycle layer and the transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	workers         int

	hub     *core.Hub
	store   store.Store
	engine  *local.Engine
	bridge  *listener.Bridge
	tracker *operation.Tracker
	convs   *conversation.Synchronizer
	metrics *metrics.Metrics
	auth    *auth.Service
	cfg     *config.Config
	log     *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		workers:         cfg.Workers,
		store:           st,
		cfg:             cfg,
		log:             logger,
	}

	// Metrics sources are read lazily, so the collectors can be built
	// before the hub and tracker they observe.
	a.metrics = metrics.New(metrics.Sources{
		HubDropped: func() uint64 { return a.hub.Dropped() },
		HubEvicted: func() uint64 { return a.hub.Evicted() },
		InFlight:   func() int { return a.tracker.InFlight() },
	})

	a.hub = core.NewHub(logger,
		core.WithEventBuffer(cfg.EventBuffer),
		core.WithDeliverHook(a.metrics.ObserveEvent),
	)
	a.engine = local.New(st, logger, local.WithProgressSteps(cfg.SendProgressSteps))
	a.tracker = operation.NewTracker(a.hub, logger, operation.WithObserver(a.metrics.ObserveOperation))
	a.bridge = listener.New(a.engine, a.hub, logger)
	a.convs = conversation.New(a.engine, logger, conversation.WithRetryHook(a.metrics.ObserveSortRetry))

	a.auth = auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	if !a.auth.TokensEnabled() {
		logger.Warn().Msg("jwt_secret is empty, API and WebSocket accept unauthenticated clients")
	}
	return a, nil
}

// Run starts delivery and the HTTP server and blocks until ctx is cancelled
// or the server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := executor.New(ctx, a.workers)
	d := dispatch.New(dispatch.Deps{
		Engine:        a.engine,
		Tracker:       a.tracker,
		Conversations: a.convs,
		Executor:      pool,
		Logger:        a.log,
		Observer:      a.metrics.ObserveRequest,
	})
	a.server = transporthttp.NewServer(transporthttp.Deps{
		Hub:      a.hub,
		Invoker:  d,
		Auth:     a.auth,
		Sessions: a.engine,
		Metrics:  a.metrics,
		Config:   a.cfg,
		Logger:   a.log,
	})

	a.bridge.Subscribe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Int("methods", len(d.Methods())).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancelShutdown()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	cancel()
	a.cleanup(pool)
	return err
}

// cleanup waits for background work and closes the store.
func (a *App) cleanup(pool *executor.Pool) {
	pool.Wait()
	a.engine.Wait()
	a.bridge.Unsubscribe()
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
		return
	}
	a.log.Info().Msg("store closed")
}
