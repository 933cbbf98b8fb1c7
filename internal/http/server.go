package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"rewards/internal/log"
	"rewards/internal/middleware/ratelimit"
	"rewards/internal/middleware/security"
	"rewards/internal/middleware/trace"
	"rewards/internal/report"
	appweb "rewards/web"
)

// ReportGenerator produces a fresh payload per request.
// *services.ReportService implements it.
type ReportGenerator interface {
	Generate(ctx context.Context) (*report.Payload, error)
	Source() string
}

type Options struct {
	// RateLimitPerMinute of 0 disables rate limiting.
	RateLimitPerMinute int
	// TrustedProxies extends the private ranges allowed to forward client addresses.
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	reports   ReportGenerator
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(addr string, reports ReportGenerator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		reports: reports,
		logger:  logger,
		started: time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WarnContext(context.Background(), "Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(http.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static)).Methods(http.MethodGet)
	} else {
		logger.WarnContext(context.Background(), "Failed to mount embedded static FS", log.FieldError, err)
	}

	router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/api/ledger", s.handleLedger).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	resolver := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			logger.WarnContext(context.Background(), "Ignoring trusted proxy", log.FieldError, err)
		}
	}

	var handler http.Handler = router
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
		handler = s.limiter.Middleware(resolver.ClientIP, s.handleRateLimited)(handler)
	}
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)

	s.tracer = trace.NewMiddleware(resolver.ClientIP)
	s.Handler = s.tracer.Middleware(handler)

	return s
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
}

// methodNotAllowed answers routes that exist but only serve GET.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	w.WriteHeader(http.StatusMethodNotAllowed)
}
