package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"finance/internal/backend"
	applog "finance/internal/log"
	"finance/internal/middleware/identity"
	"finance/internal/middleware/ratelimit"
	"finance/internal/middleware/security"
	"finance/internal/middleware/trace"
)

// ServerConfig holds the HTTP settings taken from the application config.
type ServerConfig struct {
	Addr               string
	UserIDHeader       string
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *applog.Logger
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	transactionsUpdated int64
	transactionsDeleted int64
	summariesServed     int64
}

// Server is the JSON API on top of a backend.
type Server struct {
	http.Server
	backend backend.Backend
	logger  *applog.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg ServerConfig, b backend.Backend) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	detector, err := security.NewDetector(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	limiterCfg := ratelimit.DefaultConfig()
	if cfg.RateLimitPerMinute > 0 {
		limiterCfg.RequestsPerMinute = cfg.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		backend:          b,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(limiterCfg),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       appMetrics{uptime: time.Now()},
	}

	authed := identity.Middleware(cfg.UserIDHeader, func(w http.ResponseWriter, r *http.Request) {
		UnauthorizedError().Write(w)
	})
	api := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux := http.NewServeMux()
	mux.Handle("GET /transactions", api(s.handleListTransactions))
	mux.Handle("POST /transactions", api(s.handleCreateTransaction))
	mux.Handle("GET /transactions/{id}", api(s.handleGetTransaction))
	mux.Handle("PUT /transactions/{id}", api(s.handleUpdateTransaction))
	mux.Handle("PATCH /transactions/{id}", api(s.handleUpdateTransaction))
	mux.Handle("DELETE /transactions/{id}", api(s.handleDeleteTransaction))
	mux.Handle("GET /summary", api(s.handleSummary))
	mux.Handle("GET /summary/by-category", api(s.handleSummaryByCategory))
	mux.Handle("GET /categories", api(s.handleCategories))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// structured returns a StructuredLogger bound to the request logger.
func (s *Server) structured(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) countCreated() { atomic.AddInt64(&s.appMetrics.transactionsCreated, 1) }
func (s *Server) countUpdated() { atomic.AddInt64(&s.appMetrics.transactionsUpdated, 1) }
func (s *Server) countDeleted() { atomic.AddInt64(&s.appMetrics.transactionsDeleted, 1) }
func (s *Server) countSummary() { atomic.AddInt64(&s.appMetrics.summariesServed, 1) }
