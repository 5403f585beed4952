// Package server provides the HTTP REST API for the resume optimizer.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/resume-optimizer/internal/config"
	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/fetch"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/server/middleware"
	"github.com/jonathan/resume-optimizer/internal/server/ratelimit"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Store is the persistence the handlers use. Every resume, job and run
// lookup is scoped to the owner and returns nil, nil on a miss.
type Store interface {
	DBClient
	Ping(ctx context.Context) error

	CreateResume(ctx context.Context, r *types.Resume) (*types.Resume, error)
	GetResume(ctx context.Context, userID, id uuid.UUID) (*types.Resume, error)
	ListResumes(ctx context.Context, userID uuid.UUID, filter db.ResumeFilter) ([]types.Resume, error)
	UpdateResume(ctx context.Context, r *types.Resume) (*types.Resume, error)
	DeleteResume(ctx context.Context, userID, id uuid.UUID) (bool, error)

	CreateJob(ctx context.Context, j *types.Job) (*types.Job, error)
	GetJob(ctx context.Context, userID, id uuid.UUID) (*types.Job, error)
	ListJobs(ctx context.Context, userID uuid.UUID) ([]types.Job, error)
	UpdateJob(ctx context.Context, j *types.Job) (*types.Job, error)
	DeleteJob(ctx context.Context, userID, id uuid.UUID) (bool, error)

	GetOptimizationRun(ctx context.Context, userID, runID uuid.UUID) (*types.OptimizationRun, error)
	ListOptimizationRuns(ctx context.Context, userID uuid.UUID, limit int) ([]types.OptimizationRun, error)
}

var (
	_ Store                    = (*db.DB)(nil)
	_ optimize.Store           = (*db.DB)(nil)
	_ optimize.HistoryRecorder = (*db.DB)(nil)
	_ Optimizer                = (*optimize.Controller)(nil)
	_ PostingSource            = (*fetch.Fetcher)(nil)
)

// Optimizer runs optimization requests
type Optimizer interface {
	RunWithProgress(ctx context.Context, userID uuid.UUID, req *types.OptimizationRequest, progress optimize.ProgressFunc) (*types.OptimizationResult, error)
}

// PostingSource fetches the readable text of a job posting
type PostingSource interface {
	Posting(ctx context.Context, url string) (*fetch.Posting, error)
}

// Deps are the collaborators a Server is built from
type Deps struct {
	Store     Store
	Optimizer Optimizer
	Scorer    optimize.Scorer
	// Clients resolves model clients for job import parsing
	Clients  llm.ClientSource
	Postings PostingSource
	// Metrics and Gatherer are optional; /metrics is served when Gatherer is set
	Metrics     *observability.Metrics
	Gatherer    prometheus.Gatherer
	RateLimiter *ratelimit.Limiter
	Logger      *slog.Logger
}

// Server represents the HTTP server
type Server struct {
	cfg         *config.Config
	httpServer  *http.Server
	handler     http.Handler
	store       Store
	optimizer   Optimizer
	scorer      optimize.Scorer
	clients     llm.ClientSource
	postings    PostingSource
	metrics     *observability.Metrics
	gatherer    prometheus.Gatherer
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
}

// New creates a new server instance
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server requires a store")
	}
	if deps.Optimizer == nil || deps.Scorer == nil {
		return nil, errors.New("server requires an optimizer and a scorer")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	passwordConfig, err := cfg.Password()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	jwtConfig, err := cfg.JWT()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	s := &Server{
		cfg:         cfg,
		store:       deps.Store,
		optimizer:   deps.Optimizer,
		scorer:      deps.Scorer,
		clients:     deps.Clients,
		postings:    deps.Postings,
		metrics:     deps.Metrics,
		gatherer:    deps.Gatherer,
		rateLimiter: deps.RateLimiter,
		logger:      logger,
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.userService = NewUserService(deps.Store, passwordConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService, s)

	s.handler = s.withMetrics(s.withLogging(s.withRateLimit(s.withCORS(s.routes()))))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout, // optimization runs stream for minutes
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Authentication
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.Handle("PUT /auth/password", protected(s.authHandler.UpdatePassword))
	mux.Handle("GET /auth/me", protected(s.authHandler.Me))

	// Resumes
	mux.Handle("GET /api/v1/resumes", protected(s.handleListResumes))
	mux.Handle("POST /api/v1/resumes", protected(s.handleCreateResume))
	mux.Handle("GET /api/v1/resumes/{id}", protected(s.handleGetResume))
	mux.Handle("PUT /api/v1/resumes/{id}", protected(s.handleUpdateResume))
	mux.Handle("DELETE /api/v1/resumes/{id}", protected(s.handleDeleteResume))
	mux.Handle("POST /api/v1/resumes/{id}/score", protected(s.handleScoreResume))

	// Jobs
	mux.Handle("GET /api/v1/jobs", protected(s.handleListJobs))
	mux.Handle("POST /api/v1/jobs", protected(s.handleCreateJob))
	mux.Handle("POST /api/v1/jobs/import", protected(s.handleImportJob))
	mux.Handle("GET /api/v1/jobs/{id}", protected(s.handleGetJob))
	mux.Handle("PUT /api/v1/jobs/{id}", protected(s.handleUpdateJob))
	mux.Handle("DELETE /api/v1/jobs/{id}", protected(s.handleDeleteJob))

	// Optimization
	mux.Handle("POST /api/v1/optimize", protected(s.handleOptimize))
	mux.Handle("POST /api/v1/optimize/stream", protected(s.handleOptimizeStream))
	mux.Handle("GET /api/v1/optimizations", protected(s.handleListOptimizations))
	mux.Handle("GET /api/v1/optimizations/{id}", protected(s.handleGetOptimization))

	return mux
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	s.logger.Info("server stopped")
	return nil
}

// handleHealth reports liveness and database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
