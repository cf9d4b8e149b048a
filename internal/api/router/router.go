package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ateliercarvalho/atelier/internal/http/handlers"
	httpmiddleware "github.com/ateliercarvalho/atelier/internal/http/middleware"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	Public             *handlers.PublicHandler
	Auth               *handlers.AuthHandler
	Admin              *handlers.AdminHandler
	Sessions           *httpmiddleware.Sessions
	RateLimiter        *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	// Probes and metrics
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Health.HealthCheck)
		public.Get("/ready", cfg.Health.Ready)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Compress(5, "application/json"))
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(cfg.Sessions.Handler)

		// Website
		api.Get("/services", cfg.Public.ListServices)
		api.Get("/services/{id}", cfg.Public.GetService)
		api.Get("/config", cfg.Public.GetConfig)
		api.Get("/availability", cfg.Public.MonthAvailability)
		api.Get("/availability/{date}", cfg.Public.DaySlots)
		api.Post("/bookings", cfg.Public.CreateBooking)
		api.Get("/bookings/mine", cfg.Public.MyBookings)

		api.Route("/auth", func(r chi.Router) {
			r.Post("/login", cfg.Auth.Login)
			r.Post("/register", cfg.Auth.Register)
			r.Post("/logout", cfg.Auth.Logout)
			r.Get("/me", cfg.Auth.Me)
			r.Put("/me", cfg.Auth.UpdateMe)
		})

		// Back office
		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", cfg.Auth.AdminLogin)
			admin.Post("/logout", cfg.Auth.AdminLogout)

			admin.Group(func(r chi.Router) {
				r.Use(httpmiddleware.RequireAdmin)
				r.Get("/me", cfg.Auth.AdminMe)
				r.Get("/dashboard", cfg.Admin.Dashboard)

				r.Route("/customers", func(r chi.Router) {
					r.Get("/", cfg.Admin.ListCustomers)
					r.Post("/", cfg.Admin.CreateCustomer)
					r.Get("/live", cfg.Admin.LiveSearch)
					r.Get("/{id}", cfg.Admin.GetCustomer)
					r.Put("/{id}", cfg.Admin.UpdateCustomer)
					r.Delete("/{id}", cfg.Admin.DeleteCustomer)
				})
				r.Route("/appointments", func(r chi.Router) {
					r.Get("/", cfg.Admin.ListAppointments)
					r.Post("/", cfg.Admin.CreateAppointment)
					r.Get("/{id}", cfg.Admin.GetAppointment)
					r.Delete("/{id}", cfg.Admin.CancelAppointment)
				})
				r.Get("/time-slots", cfg.Admin.TimeSlots)
				r.Get("/settings", cfg.Admin.GetSettings)
				r.Put("/settings", cfg.Admin.SaveSettings)
				r.Get("/submissions", cfg.Admin.Submissions)
			})
		})
	})

	return r
}
