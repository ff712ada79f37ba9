package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appcontext "github.com/sawpanic/equitycore/internal/context"
	"github.com/sawpanic/equitycore/internal/news"
	"github.com/sawpanic/equitycore/internal/orchestrator"
	"github.com/sawpanic/equitycore/internal/ratelimit"
	"github.com/sawpanic/equitycore/internal/sensor"
)

// Config holds the server's listen address and read/write timeouts,
// mirroring the teacher's ServerConfig split of host/port/timeouts.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	APIKey       string
	Version      string
}

// DefaultConfig returns the listen defaults; Port 0 lets the OS pick one in
// tests.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8000,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second, // above the orchestrator's globalDeadline
		IdleTimeout:  60 * time.Second,
		Version:      "1.0.0",
	}
}

// Server is the HTTP surface of spec.md §6: a thin dispatcher over the
// Orchestrator and the individual sensors, with its own rate limiting and
// optional API key gate.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	config     Config

	orch                *orchestrator.Orchestrator
	marketSensor        *sensor.MarketDataSensor
	contextSensor       *appcontext.Sensor
	newsAgg             *news.Aggregator
	fundamentalsFetcher orchestrator.FundamentalsFetcher
	limiter             *ratelimit.IPLimiter
	promRegistry        *prometheus.Registry

	startedAt time.Time
	log       zerolog.Logger
}

// Deps bundles every collaborator Server dispatches to.
type Deps struct {
	Orchestrator        *orchestrator.Orchestrator
	MarketSensor        *sensor.MarketDataSensor
	ContextSensor       *appcontext.Sensor
	NewsAggregator      *news.Aggregator
	FundamentalsFetcher orchestrator.FundamentalsFetcher
	Limiter             *ratelimit.IPLimiter
	PromRegistry        *prometheus.Registry
}

// NewServer builds a Server over deps and wires its routes.
func NewServer(cfg Config, deps Deps, log zerolog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	s := &Server{
		router:              mux.NewRouter(),
		config:              cfg,
		orch:                deps.Orchestrator,
		marketSensor:        deps.MarketSensor,
		contextSensor:       deps.ContextSensor,
		newsAgg:             deps.NewsAggregator,
		fundamentalsFetcher: deps.FundamentalsFetcher,
		limiter:             deps.Limiter,
		promRegistry:        deps.PromRegistry,
		startedAt:           time.Now(),
		log:                 log.With().Str("component", "httpapi").Logger(),
	}

	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoverMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.promRegistry != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	protected := s.router.PathPrefix("/").Subrouter()
	protected.Use(s.apiKeyMiddleware)
	protected.Use(s.rateLimitMiddleware)
	protected.Use(s.jsonContentTypeMiddleware)

	protected.HandleFunc("/analysis/{ticker}", s.handleAnalysis).Methods(http.MethodGet)
	protected.HandleFunc("/technical/{ticker}", s.handleTechnical).Methods(http.MethodGet)
	protected.HandleFunc("/fundamental/{ticker}", s.handleFundamental).Methods(http.MethodGet)
	protected.HandleFunc("/news/{ticker}", s.handleNews).Methods(http.MethodGet)
	protected.HandleFunc("/context/{ticker}", s.handleContext).Methods(http.MethodGet)
	protected.HandleFunc("/research/{ticker}/report", s.handleResearchReport).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("starting http server")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address (host:port); with port 0 it
// reports ":0", not the port the OS picks.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
