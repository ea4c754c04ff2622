package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/code-arena-club/arena-backend/app/modules/broadcast"
	contestservice "github.com/code-arena-club/arena-backend/app/modules/contest/application"
	leaderboardservice "github.com/code-arena-club/arena-backend/app/modules/leaderboard/application"
	"github.com/code-arena-club/arena-backend/internal/attr"
	"github.com/code-arena-club/arena-backend/pkg/jwt"
)

// Server is the HTTP API surface: contest management, leaderboard reads,
// score ingest from the grading pipeline, and the SSE stream.
type Server struct {
	addr        string
	logger      *slog.Logger
	contests    contestservice.Service
	leaderboard leaderboardservice.Service
	hub         *broadcast.Hub
	jwtService  jwt.Service
	registry    *prometheus.Registry

	healthChecks []HealthCheck

	srv *http.Server
}

// HealthCheck reports the readiness of one named dependency for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// SetHealthChecks registers the dependency probes /healthz runs. Call before
// Start.
func (s *Server) SetHealthChecks(checks ...HealthCheck) {
	s.healthChecks = checks
}

// NewServer wires the HTTP server. registry may be nil to disable /metrics.
func NewServer(
	addr string,
	logger *slog.Logger,
	contests contestservice.Service,
	leaderboard leaderboardservice.Service,
	hub *broadcast.Hub,
	jwtService jwt.Service,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		addr:        addr,
		logger:      logger,
		contests:    contests,
		leaderboard: leaderboard,
		hub:         hub,
		jwtService:  jwtService,
		registry:    registry,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	if s.registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	scoreLimiter := NewIPRateLimiter(50, 100)

	r.Route("/api/contests", func(r chi.Router) {
		r.Get("/{contestID}", s.handleGetContest)
		r.Get("/{contestID}/leaderboard", s.handleGetLeaderboard)
		r.Get("/{contestID}/leaderboard/stream", s.handleLeaderboardStream)
		r.Get("/{contestID}/leaderboard/chart", s.handleLeaderboardChart)
		r.Get("/{contestID}/leaderboard/export", s.handleLeaderboardExport)

		// Score ingest from the grading pipeline.
		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(scoreLimiter))
			r.Post("/{contestID}/scores", s.handleApplyScore)
		})

		// Owner-only mutations.
		r.Group(func(r chi.Router) {
			r.Use(OwnerAuthMiddleware(s.jwtService))
			r.Post("/", s.handleCreateContest)
			r.Put("/{contestID}/leaderboard/status", s.handleSetLeaderboardStatus)
		})
	})

	return r
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", attr.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.srv.Shutdown(ctx)
}
