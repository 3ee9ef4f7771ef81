// Package web provides the HTTP surface of the roster service: the chi
// router, middleware stack, and JSON handlers for import and search.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/valdix-dev/rosterd/internal/config"
	"github.com/valdix-dev/rosterd/internal/roster"
	logmw "github.com/valdix-dev/rosterd/internal/web/middleware"
)

// RosterService is the slice of the roster service the handlers need.
type RosterService interface {
	ImportFile(ctx context.Context, path string) (int, error)
	List(ctx context.Context) ([]roster.Record, error)
	FindByIdentity(ctx context.Context, id, complement string) ([]roster.Record, error)
	SearchByName(ctx context.Context, q roster.NameQuery) ([]roster.Record, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the roster service.
type Server struct {
	service RosterService
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service RosterService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Imports get their own, stricter limiter: a batch holds a
	// connection for its whole transaction.
	importHandler := http.HandlerFunc(s.handleImport)
	if s.cfg.Rate.Enabled {
		importLimiter := newRateLimiter(s.cfg.Rate.ImportPerMinute, time.Minute)
		s.router.Method(http.MethodPost, "/import", importLimiter.middleware(importHandler))
	} else {
		s.router.Method(http.MethodPost, "/import", importHandler)
	}

	s.router.Get("/records", s.handleListRecords)
	s.router.Get("/records/by-identity", s.handleIdentityLookup)
	s.router.Get("/records/by-name", s.handleNameSearch)
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			respondErrorJSON(w, roster.UserMessage{
				Message: "Too many requests",
				Action:  "Please wait a moment before trying again",
				Code:    "RATE001",
			}, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
