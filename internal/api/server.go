package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/softsso/internal/api/handler"
	mw "github.com/edvin/softsso/internal/api/middleware"
)

// Pinger reports database reachability for /readyz. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the API server routes to.
type Deps struct {
	Resolver  handler.Resolver
	NewClient handler.ClientFactory
	Keys      mw.KeyAuthenticator
	AuditDB   mw.Execer
	DB        Pinger
	Gatherer  prometheus.Gatherer
}

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	deps        Deps
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, deps Deps) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		deps:        deps,
		auditLogger: mw.NewAuditLogger(deps.AuditDB, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.deps.Keys))
		r.Use(s.auditLogger.Middleware)

		softaculous := handler.NewSoftaculous(s.deps.Resolver, s.deps.NewClient)
		r.Post("/softaculous", softaculous.Action)
		r.Post("/softaculous/upload", softaculous.Upload)
		r.Get("/softaculous/sso", softaculous.SSO)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.deps.DB.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes pending audit log entries.
func (s *Server) Close() {
	s.auditLogger.Close()
}
