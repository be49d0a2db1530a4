package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/middleware"
	"github.com/nijaru/yt-summarize/services/summary"
	"github.com/nijaru/yt-summarize/utils"
)

// routeMethods lists the method served on each known path, for 405 answers.
var routeMethods = map[string]string{
	"/summarize": http.MethodPost,
	"/health":    http.MethodGet,
}

type Server struct {
	summary   *SummaryHandler
	modelName string
	config    *config.Config
	logger    *logrus.Logger
	server    *http.Server
	startTime time.Time
}

type ServerOption func(*Server)

// NewServer creates a new API server with the provided services and options
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	s := &Server{
		config:    cfg,
		logger:    logrus.StandardLogger(),
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// WithSummaryService sets up the summarize handler. modelName is reported by
// the health check.
func WithSummaryService(svc summary.Service, modelName string) ServerOption {
	return func(s *Server) {
		s.summary = NewSummaryHandler(svc, s.config.Summary.IncludeChunks, s.logger)
		s.modelName = modelName
	}
}

// WithLogger sets a custom logger for the server. It must precede
// WithSummaryService to reach the handlers.
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("port", s.config.ServerPort).Info("Starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if s.summary != nil {
		mux.HandleFunc("POST /summarize", s.summary.HandleSummarize)
	}
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", s.handleUnmatched)

	return s.middleware(mux)
}

// handleUnmatched answers requests no route accepts with a JSON error instead
// of the mux's plain-text 404 and 405 bodies.
func (s *Server) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if method, ok := routeMethods[r.URL.Path]; ok {
		w.Header().Set("Allow", method)
		utils.HandleError(w, fmt.Sprintf("Method %s not allowed", r.Method), http.StatusMethodNotAllowed)
		return
	}
	utils.HandleError(w, "Not found", http.StatusNotFound)
}

func (s *Server) middleware(handler http.Handler) http.Handler {
	var rateLimiter func(http.Handler) http.Handler
	if s.config.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(
			s.config.RateLimit.RequestsPerMinute,
			s.config.RateLimit.BurstSize,
		).Middleware
	}

	return middleware.Chain(handler,
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.CORS(s.config.CORS),
		rateLimiter,
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   s.config.Version,
		"uptime":    time.Since(s.startTime).String(),
		"model":     s.modelName,
	}

	if s.config.Debug {
		status["debug"] = true
		status["goroutines"] = runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		status["memory"] = map[string]interface{}{
			"allocated": m.Alloc,
			"total":     m.TotalAlloc,
			"system":    m.Sys,
			"gc_cycles": m.NumGC,
		}
	}

	respondJSON(w, http.StatusOK, status)
}
