package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/Nzyazin/currency/internal/core/handler"
	"github.com/Nzyazin/currency/internal/core/logger"
	middlWre "github.com/Nzyazin/currency/internal/core/middleware"
	"github.com/Nzyazin/currency/internal/core/rates"
	"github.com/Nzyazin/currency/internal/core/repository"
	"github.com/Nzyazin/currency/internal/core/repository/memory"
	"github.com/Nzyazin/currency/internal/core/repository/postgres"
	"github.com/Nzyazin/currency/internal/core/usecase"
	"github.com/Nzyazin/currency/pkg/config"
	"github.com/Nzyazin/currency/pkg/postgresdb"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

type Server struct {
	router          *mux.Router
	log             logger.Logger
	httpServer      *http.Server
	currencyHandler *handler.CurrencyHandler
	registry        *prom.Registry
	db              *postgresdb.Database
	redis           *redis.Client
}

func NewServer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Server, error) {
	server := &Server{
		log:      log,
		router:   mux.NewRouter(),
		registry: prom.NewRegistry(),
	}
	server.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	currencies, err := server.currencyRepository(ctx, cfg)
	if err != nil {
		server.closeStores()
		return nil, err
	}

	provider, err := server.rateProvider(ctx, cfg)
	if err != nil {
		server.closeStores()
		return nil, err
	}

	conversionUsecase := usecase.NewConversionUsecase(provider, cfg.Rates.Timeout, log)
	server.currencyHandler = handler.NewCurrencyHandler(conversionUsecase, currencies, log)

	server.router.Use(middlWre.RequestID(), middlWre.Logging(server.log))

	mw := middleware.New(middleware.Config{
		Recorder: prometheus.NewRecorder(prometheus.Config{Registry: server.registry}),
	})

	server.router.Use(func(next http.Handler) http.Handler {
		return std.Handler("", mw, next)
	})

	server.RegisterRoutes()

	return server, nil
}

func (s *Server) currencyRepository(ctx context.Context, cfg *config.Config) (repository.CurrencyRepository, error) {
	embedded, err := memory.NewEmbeddedCurrencyRepo()
	if err != nil {
		return nil, err
	}
	if cfg.Currencies != config.SourcePostgres {
		return embedded, nil
	}

	db, err := postgresdb.NewPostgresDB(ctx, *cfg.DB, 5*time.Second, s.log)
	if err != nil {
		return nil, err
	}
	s.db = db

	if err := postgres.Migrate(ctx, db.DB); err != nil {
		return nil, err
	}
	seed, err := embedded.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := postgres.Seed(ctx, db.DB, seed); err != nil {
		return nil, err
	}

	return postgres.NewPostgresCurrencyRepo(db.DB, s.log), nil
}

// rateProvider assembles the lookup chain: source, optional latency,
// metrics and logging, then the optional cache in front of everything.
func (s *Server) rateProvider(ctx context.Context, cfg *config.Config) (rates.Provider, error) {
	var provider rates.Provider
	switch cfg.Rates.Provider {
	case config.ProviderHTTP:
		provider = rates.NewHTTPProvider(cfg.Rates.URL, cfg.Rates.APIKey, cfg.Rates.Timeout)
	default:
		ecb, err := rates.NewECBProvider()
		if err != nil {
			return nil, err
		}
		provider = ecb
	}

	if cfg.Rates.LatencyMin > 0 {
		s.log.Warn("Artificial rate lookup latency enabled",
			logger.StringField("currency", cfg.Rates.LatencyCurrency),
			logger.DurationField("min", cfg.Rates.LatencyMin),
			logger.DurationField("max", cfg.Rates.LatencyMax))
		provider = rates.NewLatencyProvider(provider, cfg.Rates.LatencyCurrency, cfg.Rates.LatencyMin, cfg.Rates.LatencyMax)
	}

	provider = rates.NewInstrumentedProvider(provider, rates.NewMetrics(s.registry))
	provider = rates.NewLoggingProvider(provider, s.log)

	switch cfg.Rates.Cache {
	case config.CacheMemory:
		provider = rates.NewCachingProvider(provider, rates.NewMemoryStore(), cfg.Rates.CacheTTL, s.log)
	case config.CacheRedis:
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.redis.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		s.log.Info("Redis connection established", logger.StringField("addr", cfg.Redis.Addr))
		provider = rates.NewCachingProvider(provider, rates.NewRedisStore(s.redis), cfg.Rates.CacheTTL, s.log)
	}

	return provider, nil
}

func (s *Server) RegisterRoutes() {
	s.router.Use(
		middlWre.WithErrorHandler(s.log),
		middlWre.Recovery(s.log),
	)
	s.currencyHandler.RegisterRoutes(s.router)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      12 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
	}

	s.httpServer = srv

	return srv.ListenAndServe()
}

func (s *Server) RunTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       9 * time.Second,
		WriteTimeout:      9 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 6 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	s.httpServer = srv
	return srv.ListenAndServeTLS(certFile, keyFile)
}

func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	var shutdownErr error

	go func() {
		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.log.Error("failed to shutdown HTTP server", logger.ErrorField("error", err))
				shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
			}
		}

		if err := s.closeStores(); err != nil {
			shutdownErr = errors.Join(shutdownErr, err)
		}

		close(done)
	}()

	select {
	case <-done:
		return shutdownErr
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (s *Server) closeStores() error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Error("failed to close database connection", logger.ErrorField("error", err))
			errs = append(errs, fmt.Errorf("database shutdown error: %w", err))
		}
		s.db = nil
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Error("failed to close redis connection", logger.ErrorField("error", err))
			errs = append(errs, fmt.Errorf("redis shutdown error: %w", err))
		}
		s.redis = nil
	}
	return errors.Join(errs...)
}
