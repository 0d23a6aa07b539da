package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/internal/models"
	"github.com/jpbenga/tyrecheck/pkg/auth"
	"github.com/jpbenga/tyrecheck/pkg/classifier"
	"github.com/jpbenga/tyrecheck/pkg/config"
)

// Server represents the HTTP upload relay server
type Server struct {
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	logger     *logrus.Logger
	classifier classifier.Classifier
}

// NewServer creates a new relay server instance
func NewServer(cfg *config.Config, cls classifier.Classifier, logger *logrus.Logger) *Server {
	s := &Server{
		config:     cfg,
		router:     mux.NewRouter(),
		logger:     logger,
		classifier: cls,
	}

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	readTimeout, _ := cfg.ParseDuration(cfg.Server.ReadTimeout)
	writeTimeout, _ := cfg.ParseDuration(cfg.Server.WriteTimeout)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return s
}

// Handler returns the server's HTTP handler, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures HTTP routes and middleware
func (s *Server) setupRoutes() {
	// Apply global middleware
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.requestSizeLimitMiddleware)

	authenticator := auth.NewAuthenticator(s.config, s.logger)

	// API endpoints
	s.router.Handle("/analyze",
		authenticator.Middleware(http.HandlerFunc(s.handleAnalyze))).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Everything else serves the compiled client application
	s.router.PathPrefix("/").HandlerFunc(s.handleStatic).Methods(http.MethodGet)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":       s.config.Server.Port,
		"static_dir": s.config.Static.Dir,
	}).Info("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// handleHealth returns the liveness payload
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleStatic serves the compiled client application with a
// single-page-application fallback to index.html
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	dir := s.config.Static.Dir

	requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		http.ServeFile(w, r, requested)
		return
	}

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.writeError(w, http.StatusInternalServerError,
			"Client application not built", "index.html not found in static dir")
		return
	}

	http.ServeFile(w, r, index)
}

// writeJSON writes a JSON response body with the given status
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, models.APIError{Error: message, Details: details})
}

// loggingMiddleware logs all HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"status_code": rw.statusCode,
			"duration_ms": duration.Milliseconds(),
		}).Info("HTTP request")
	})
}

// requestSizeLimitMiddleware enforces maximum request size
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Leave headroom for multipart framing around the image itself
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxSize+1<<20)
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
