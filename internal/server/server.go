// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/topclass/bookingguard/internal/config"
	"github.com/topclass/bookingguard/internal/handlers"
	"github.com/topclass/bookingguard/internal/metrics"
	"github.com/topclass/bookingguard/internal/middleware"
	"github.com/topclass/bookingguard/internal/ratelimit"
	"github.com/topclass/bookingguard/internal/services"
	"github.com/topclass/bookingguard/pkg/logger"
)

// Deps are the collaborators the routes are served by. Forms and Photos
// default to fresh services; Limiters defaults to an in-memory set built
// from the configured profiles.
type Deps struct {
	Limiters *ratelimit.Set
	Bookings services.BookingService
	Forms    *services.FormService
	Photos   *services.PhotoService
}

// Server represents the HTTP server.
type Server struct {
	cfg            *config.Config
	log            *logger.Logger
	httpServer     *http.Server
	limiters       *ratelimit.Set
	healthHandler  *handlers.HealthHandler
	bookingHandler *handlers.BookingHandler
	formHandler    *handlers.FormHandler
	photoHandler   *handlers.PhotoHandler
	limitsHandler  *handlers.LimitsHandler
	listener       net.Listener
	running        bool
	mu             sync.RWMutex
}

// LimiterProfiles returns the profile configurations with the configured
// budgets applied. Key prefixes stay per profile.
func LimiterProfiles(rc config.RateLimitConfig) map[ratelimit.Profile]ratelimit.Config {
	profiles := ratelimit.DefaultProfiles()
	for p, lc := range map[ratelimit.Profile]config.LimitConfig{
		ratelimit.ProfileBooking: rc.Booking,
		ratelimit.ProfileForm:    rc.Form,
		ratelimit.ProfilePhotos:  rc.Photos,
	} {
		c := profiles[p]
		if lc.Requests > 0 {
			c.MaxRequests = lc.Requests
		}
		if lc.Window > 0 {
			c.Window = lc.Window
		}
		profiles[p] = c
	}
	return profiles
}

// New creates a new Server instance.
func New(cfg *config.Config, log *logger.Logger, deps Deps) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}

	limiters := deps.Limiters
	if limiters == nil {
		var err error
		limiters, err = ratelimit.NewMemorySet(LimiterProfiles(cfg.Rate),
			ratelimit.WithCleanupInterval(cfg.Rate.CleanupInterval))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiters: %w", err)
		}
	}
	for _, p := range []ratelimit.Profile{ratelimit.ProfileBooking, ratelimit.ProfileForm, ratelimit.ProfilePhotos} {
		if _, ok := limiters.Get(p); !ok {
			return nil, fmt.Errorf("no limiter for profile %s: %w", p, ratelimit.ErrUnknownProfile)
		}
	}

	forms := deps.Forms
	if forms == nil {
		forms = services.NewFormService(log)
	}
	photos := deps.Photos
	if photos == nil {
		photos = services.NewPhotoService(services.DefaultTicketTTL)
	}

	s := &Server{
		cfg:           cfg,
		log:           log,
		limiters:      limiters,
		healthHandler: handlers.NewHealthHandler(log),
		formHandler:   handlers.NewFormHandler(forms),
		photoHandler:  handlers.NewPhotoHandler(photos, limiters.MustGet(ratelimit.ProfilePhotos), log),
		limitsHandler: handlers.NewLimitsHandler(limiters, log),
	}
	if deps.Bookings != nil {
		s.bookingHandler = handlers.NewBookingHandler(deps.Bookings)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.buildMiddlewareChain(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// buildMiddlewareChain creates the middleware chain applied to every route.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	return middleware.New(
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.ClientIP(s.cfg.Rate.TrustProxy, nil),
		middleware.ClientIdentity(),
		middleware.Logging(s.log),
	).Then(handler)
}

// limited wraps h with the limiter of one profile.
func (s *Server) limited(p ratelimit.Profile, h http.HandlerFunc) http.Handler {
	return middleware.New(middleware.RateLimit(p, s.limiters.MustGet(p), s.log)).ThenFunc(h)
}

// registerRoutes sets up the HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check routes (GET only)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)

	// Metrics endpoint for Prometheus
	mux.Handle("GET /metrics", metrics.Handler())

	// Public wizard routes, each counted against its own profile
	mux.Handle("POST /api/v1/bookings", s.limited(ratelimit.ProfileBooking, s.bookings((*handlers.BookingHandler).Create)))
	mux.Handle("POST /api/v1/forms/contact", s.limited(ratelimit.ProfileForm, s.formHandler.Contact))
	mux.Handle("POST /api/v1/forms/property", s.limited(ratelimit.ProfileForm, s.formHandler.Property))
	// Photos are charged per file by the handler itself
	mux.HandleFunc("POST /api/v1/photos/authorize", s.photoHandler.Authorize)

	mux.HandleFunc("GET /api/v1/catalog", handlers.CatalogHandler)
	mux.HandleFunc("GET /api/v1/availability/{date}", s.bookings((*handlers.BookingHandler).Availability))

	// Admin review routes
	mux.HandleFunc("GET /api/v1/bookings", s.bookings((*handlers.BookingHandler).List))
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.bookings((*handlers.BookingHandler).Get))
	mux.HandleFunc("PATCH /api/v1/bookings/{id}/status", s.bookings((*handlers.BookingHandler).UpdateStatus))

	// Rate limit inspection
	mux.HandleFunc("GET /api/v1/limits/{profile}", s.limitsHandler.Status)
	mux.Handle("DELETE /api/v1/limits/{profile}/{identifier}",
		middleware.New(middleware.AdminToken(s.cfg.Rate.AdminToken)).ThenFunc(s.limitsHandler.Reset))
}

// bookings routes to a booking handler method, or 503 when no booking
// service is configured.
func (s *Server) bookings(method func(*handlers.BookingHandler, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.bookingHandler == nil {
			http.Error(w, "booking service not configured", http.StatusServiceUnavailable)
			return
		}
		method(s.bookingHandler, w, r)
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()

	// Create listener first to get the actual address (important when port is 0)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err = s.httpServer.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server and releases the limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")

	// Mark as not ready during shutdown
	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	if closeErr := s.limiters.Close(); closeErr != nil {
		s.log.Error("failed to close rate limiters", "error", closeErr)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("shutdown error", "error", err)
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.healthHandler
}

// Limiters returns the rate limiter set.
func (s *Server) Limiters() *ratelimit.Set {
	return s.limiters
}
