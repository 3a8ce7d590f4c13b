/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/api"
	"github.com/friendsincode/dialwave/internal/cache"
	"github.com/friendsincode/dialwave/internal/catalog"
	"github.com/friendsincode/dialwave/internal/config"
	"github.com/friendsincode/dialwave/internal/db"
	"github.com/friendsincode/dialwave/internal/eventbus"
	"github.com/friendsincode/dialwave/internal/events"
	"github.com/friendsincode/dialwave/internal/playlist"
	"github.com/friendsincode/dialwave/internal/slotgen"
	"github.com/friendsincode/dialwave/internal/station"
	"github.com/friendsincode/dialwave/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db         *gorm.DB
	cache      *cache.Cache
	bus        events.PubSub
	stationSvc *station.Service
	api        *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("dialwave-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()
	srv.startMetricsListener()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := s.initBus(); err != nil {
		return err
	}

	if s.cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = s.cfg.RedisAddr
		cacheCfg.RedisPassword = s.cfg.RedisPassword
		cacheCfg.RedisDB = s.cfg.RedisDB
		entityCache, err := cache.New(cacheCfg, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
		} else {
			s.cache = entityCache
			s.DeferClose(func() error { return s.cache.Close() })
		}
	}

	var catalogSource playlist.CatalogSource
	if s.cfg.CatalogURL != "" {
		var pool catalog.PoolCache
		if s.cache != nil {
			pool = s.cache
		}
		catalogClient, err := catalog.NewClient(s.cfg.CatalogURL, pool, s.logger)
		if err != nil {
			return fmt.Errorf("catalog client: %w", err)
		}
		catalogSource = catalogClient
	} else {
		s.logger.Warn().Msg("no catalog URL configured; playlists will fill with fallback entries")
		catalogSource = emptyCatalog{}
	}

	var generator slotgen.Generator
	if s.cfg.SlotServiceURL != "" {
		slotClient, err := slotgen.NewClient(s.cfg.SlotServiceURL, s.logger)
		if err != nil {
			return fmt.Errorf("slot service client: %w", err)
		}
		generator = slotClient
	} else {
		s.logger.Info().Msg("no slot service URL configured; using built-in deterministic generator")
		generator = slotgen.NewLocal()
	}

	composer := playlist.NewComposer(catalogSource, s.logger)
	s.stationSvc = station.NewService(database, s.bus, s.cache, generator, composer, s.logger)
	s.api = api.New(s.stationSvc, s.bus, s.logger)

	return nil
}

// initBus selects the event transport. Redis and NATS bridges fall back to
// the in-memory bus internally when the broker is unreachable.
func (s *Server) initBus() error {
	switch s.cfg.EventBackend {
	case config.EventsRedis:
		busCfg := eventbus.DefaultRedisConfig()
		busCfg.Addr = s.cfg.RedisAddr
		busCfg.Password = s.cfg.RedisPassword
		busCfg.DB = s.cfg.RedisDB
		bus, err := eventbus.NewRedisBus(busCfg, s.cfg.InstanceID, s.logger)
		if err != nil {
			return fmt.Errorf("redis event bus: %w", err)
		}
		s.bus = bus
		s.DeferClose(bus.Close)
	case config.EventsNATS:
		busCfg := eventbus.DefaultNATSConfig()
		busCfg.URL = s.cfg.NATSURL
		bus, err := eventbus.NewNATSBus(busCfg, s.cfg.InstanceID, s.logger)
		if err != nil {
			return fmt.Errorf("nats event bus: %w", err)
		}
		s.bus = bus
		s.DeferClose(bus.Close)
	default:
		s.bus = events.NewBus()
	}
	return nil
}

// emptyCatalog stands in when no catalog service is configured. The composer
// turns the misses into fallback entries.
type emptyCatalog struct{}

func (emptyCatalog) Sample(ctx context.Context, count int) ([]playlist.Track, error) {
	return nil, nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// StationService exposes the station service, mainly for seeding commands.
func (s *Server) StationService() *station.Service {
	return s.stationSvc
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	// Database connection metrics updater
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(s.db)
			}
		}
	}()

	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// runCacheInvalidationListener invalidates cached station data when another
// node announces a change over the distributed bus.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	stationCreated := s.bus.Subscribe(events.EventStationCreated)
	stationUpdated := s.bus.Subscribe(events.EventStationUpdated)
	stationDeleted := s.bus.Subscribe(events.EventStationDeleted)

	defer func() {
		s.bus.Unsubscribe(events.EventStationCreated, stationCreated)
		s.bus.Unsubscribe(events.EventStationUpdated, stationUpdated)
		s.bus.Unsubscribe(events.EventStationDeleted, stationDeleted)
	}()

	s.logger.Info().Msg("cache invalidation listener started")

	invalidate := func(payload events.Payload) {
		_ = s.cache.InvalidateStationList(ctx)
		if stationID, ok := payload["station_id"].(string); ok {
			_ = s.cache.InvalidateStation(ctx, stationID)
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return
		case payload := <-stationCreated:
			invalidate(payload)
		case payload := <-stationUpdated:
			invalidate(payload)
		case payload := <-stationDeleted:
			invalidate(payload)
		}
	}
}

// startMetricsListener serves /metrics on a dedicated bind so scrapes do
// not pass through the API middleware stack. The main router also exposes
// /metrics for single-port deployments.
func (s *Server) startMetricsListener() {
	if s.cfg.MetricsBind == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	metricsServer := &http.Server{
		Addr:              s.cfg.MetricsBind,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.DeferClose(metricsServer.Close)

	go func() {
		s.logger.Info().Str("addr", s.cfg.MetricsBind).Msg("metrics listener started")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics listener exited")
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}
