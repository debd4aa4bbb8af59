// Package http serves the dashboard pages, the JSON API and the login gate.
package http

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/analytics"
	"spendtrack/internal/auth"
	"spendtrack/internal/cache"
	"spendtrack/internal/log"
	"spendtrack/internal/middleware/ratelimit"
	"spendtrack/internal/middleware/security"
	"spendtrack/internal/middleware/trace"
	"spendtrack/internal/services"
	appweb "spendtrack/web"
)

// Dashboard is what the handlers need from the data layer.
type Dashboard interface {
	Spending(ctx context.Context, f analytics.Filter) (services.SpendingView, error)
	CardsPage(ctx context.Context) (services.CardsView, error)
	AssetsPage(ctx context.Context) (services.AssetsView, error)
	Refresh(ctx context.Context) error
	Status() services.Status
}

// Options configures a Server.
type Options struct {
	Addr              string
	CurrencySymbol    string
	CookieSecure      bool
	SessionTTL        time.Duration
	RequestsPerMinute int
	// DataTimeout bounds how long a page waits for data.
	DataTimeout time.Duration
	// Caches are expired alongside the session store.
	Caches []cache.Cleaner
	Now    func() time.Time
}

type Server struct {
	http.Server
	dashboard Dashboard
	gate      *auth.Gate
	templates *renderer
	sessions  *sessionStore
	opts      Options
	logger    *log.Logger
	started   time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server. A template failure is logged and reported by
// /readyz rather than returned.
func NewServer(opts Options, dashboard Dashboard, gate *auth.Gate, logger *log.Logger) *Server {
	logger = log.OrDefault(logger, log.ComponentHTTP)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	if opts.DataTimeout <= 0 {
		opts.DataTimeout = 60 * time.Second
	}

	s := &Server{
		dashboard: dashboard,
		gate:      gate,
		sessions:  newSessionStore(opts.SessionTTL, opts.CookieSecure, opts.Now),
		opts:      opts,
		logger:    logger,
		started:   opts.Now(),
	}

	s.securityDetector = security.NewDetector(logger.WithComponent(log.ComponentSecurity))
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}, logger.WithComponent(log.ComponentRateLimit))
	s.traceMiddleware = trace.NewMiddleware(logger.WithComponent(log.ComponentTrace), s.securityDetector.ExtractClientIP)

	s.cacheManager = cache.NewManager(logger.WithComponent(log.ComponentCache))
	s.cacheManager.Register(s.sessions.sessions)
	s.cacheManager.Register(opts.Caches...)
	s.cacheManager.StartCleanup(10 * time.Minute)

	tmpl, err := newRenderer(appweb.TemplatesFS, templateFuncs(opts.CurrencySymbol))
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Failure(context.Background(), "Failed parsing templates", log.OpStartup, err)
	}
	s.templates = tmpl

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.HandleFunc("GET /{$}", s.requireAuth(s.handleSpending))
	mux.HandleFunc("GET /cards", s.requireAuth(s.handleCards))
	mux.HandleFunc("GET /assets", s.requireAuth(s.handleAssets))
	mux.HandleFunc("POST /refresh", s.requireAuth(s.handleRefresh))

	mux.HandleFunc("GET /api/spending", s.requireAuth(s.handleAPISpending))
	mux.HandleFunc("GET /api/cards", s.requireAuth(s.handleAPICards))
	mux.HandleFunc("GET /api/assets", s.requireAuth(s.handleAPIAssets))
	mux.HandleFunc("GET /api/status", s.requireAuth(s.handleAPIStatus))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil, http.MethodPost)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = log.Middleware(logger, trace.RequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      opts.DataTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// dataContext bounds a data load made on behalf of a request.
func (s *Server) dataContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.opts.DataTimeout)
}
