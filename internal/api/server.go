package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"autoshop/internal/auth"
	"autoshop/internal/config"
	"autoshop/internal/domain"
	"autoshop/internal/events"
	"autoshop/internal/export"
	"autoshop/internal/logging"
	"autoshop/internal/models"
	"autoshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of the HTTP API.
type Deps struct {
	Config     *config.Config
	Store      domain.RecordStore
	Repo       domain.Repository
	Profiles   []models.Profile
	EventBus   *events.EventBus
	Bookings   *service.BookingService
	Agenda     *service.AgendaService
	Catalog    *service.CatalogService
	Clients    *service.ClientService
	Patio      *service.PatioService
	Dashboard  *service.DashboardService
	Alerts     *service.AlertService
	Exporter   *export.AgendaExporter
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// HTTPServer serves the portal API.
type HTTPServer struct {
	Deps
	cfg      config.APIConfig
	sessions *SessionRegistry
	limiter  *rateLimiter
	server   *http.Server
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewHTTPServer(deps Deps) *HTTPServer {
	cfg := deps.Config
	logger := logging.Component(deps.Logger, "http")

	s := &HTTPServer{
		Deps:    deps,
		cfg:     cfg.API,
		limiter: newRateLimiter(cfg.API.RateLimit),
		logger:  logger,
		now:     time.Now,
	}
	s.sessions = NewSessionRegistry(cfg.Identity, deps.Store, cfg.Session.KeyPrefix, deps.Profiles,
		deps.HTTPClient, cfg.Session.TTL, logging.Component(deps.Logger, "auth"))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(clientCookie(s.cfg.CookieSecure))
		r.Use(s.limiter.middleware)

		r.Get("/session", s.handleSession)
		r.Get("/navigation", s.handleNavigation)

		r.Route("/auth", func(r chi.Router) {
			r.Use(s.authAttempts)
			r.Post("/sign-in", s.handleSignIn)
			r.Post("/sign-up", s.handleSignUp)
			r.Post("/sign-out", s.handleSignOut)
			r.Post("/demo", s.handleDemo)
			r.Post("/oauth", s.handleOAuth)
			r.Get("/callback", s.handleOAuthCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(models.RoleCustomer))
			r.Get("/home", s.handleHome)
			r.Get("/agenda", s.handleAgenda)
			r.Get("/alerts", s.handleAlerts)
			r.Post("/alerts/read-all", s.handleReadAllAlerts)
			r.Post("/alerts/{id}/read", s.handleReadAlert)
			r.Get("/services", s.handleServices)

			r.Route("/booking", func(r chi.Router) {
				r.Post("/", s.handleBookingStart)
				r.Get("/", s.handleBookingGet)
				r.Delete("/", s.handleBookingCancel)
				r.Get("/slots", s.handleBookingSlots)
				r.Post("/next", s.handleBookingNext)
				r.Post("/back", s.handleBookingBack)
				r.Post("/confirm", s.handleBookingConfirm)
				r.Post("/{field}", s.handleBookingSelect)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireRole(models.RoleAdmin))
			r.Get("/dashboard", s.handleAdminDashboard)
			r.Get("/patio", s.handleAdminPatio)
			r.Get("/clients", s.handleAdminClients)
			r.Get("/services", s.handleAdminServices)
			r.Get("/agenda", s.handleAdminAgenda)
			r.Get("/agenda/export", s.handleAdminExport)
			r.Post("/appointments/{id}/status", s.handleAdminAppointmentStatus)
		})
	})

	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return errors.New("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Str("mode", string(s.sessions.Mode())).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	defer s.sessions.Close()
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"mode":   string(s.sessions.Mode()),
	})
}

type sessionKey struct{}

// provider returns the session provider of the requesting client.
func (s *HTTPServer) provider(r *http.Request) *auth.Provider {
	if p, ok := r.Context().Value(sessionKey{}).(*auth.Provider); ok {
		return p
	}
	return s.sessions.Get(r.Context(), clientIDFromContext(r.Context()))
}

// requireRole lets the request through only for a loaded session whose role
// allows required. The snapshot is stored for the handler.
func (s *HTTPServer) requireRole(required models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := s.provider(r)
			snap, err := p.Require(required)
			if err != nil {
				s.writeFailure(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, p)
			ctx = context.WithValue(ctx, snapshotKey{}, snap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type snapshotKey struct{}

func snapshotFromContext(ctx context.Context) auth.Snapshot {
	snap, _ := ctx.Value(snapshotKey{}).(auth.Snapshot)
	return snap
}

// authAttempts bounds sign-in style requests per peer address in the record
// store so the limit holds across instances sharing redis.
func (s *HTTPServer) authAttempts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		key := s.sessions.RecordKey("addr:"+clientAddr(r), "auth_attempts")
		allowed, err := s.Store.CheckRateLimit(r.Context(), key, models.AuthRateLimitAttempts, models.AuthRateLimitWindow*time.Second)
		if err != nil {
			logging.FromContext(r.Context(), s.logger).Warn().Err(err).Msg("auth rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "Muitas tentativas, aguarde um minuto")
			return
		}
		next.ServeHTTP(w, r)
	})
}
