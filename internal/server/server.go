// Package server provides the HTTP server and routing for CourtSight.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/courtsight/courtsight/internal/config"
	"github.com/courtsight/courtsight/internal/database"
	leaguehandlers "github.com/courtsight/courtsight/internal/modules/league/handlers"
	predictionhandlers "github.com/courtsight/courtsight/internal/modules/prediction/handlers"
	tuninghandlers "github.com/courtsight/courtsight/internal/modules/tuning/handlers"
	validationhandlers "github.com/courtsight/courtsight/internal/modules/validation/handlers"
	weightshandlers "github.com/courtsight/courtsight/internal/modules/weights/handlers"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	Port    int
	DevMode bool

	LeagueDB      *database.DB
	PredictionsDB *database.DB
	ConfigDB      *database.DB
	CacheDB       *database.DB

	LeagueHandler     *leaguehandlers.Handler
	PredictionHandler *predictionhandlers.Handler
	ValidationHandler *validationhandlers.Handler
	TuningHandler     *tuninghandlers.Handler
	WeightsHandler    *weightshandlers.Handler
	SystemHandlers    *SystemHandlers
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		s.cfg.LeagueHandler.RegisterRoutes(r)
		s.cfg.PredictionHandler.RegisterRoutes(r)
		s.cfg.ValidationHandler.RegisterRoutes(r)
		s.cfg.TuningHandler.RegisterRoutes(r)
		s.cfg.WeightsHandler.RegisterRoutes(r)
		s.cfg.SystemHandlers.RegisterRoutes(r)
	})
}

// handleHealth reports liveness plus a ping against every database.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	databases := map[string]string{}
	healthy := true
	for _, db := range []*database.DB{s.cfg.LeagueDB, s.cfg.PredictionsDB, s.cfg.ConfigDB, s.cfg.CacheDB} {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			databases[db.Name()] = err.Error()
			healthy = false
		} else {
			databases[db.Name()] = "ok"
		}
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":    state,
		"databases": databases,
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
