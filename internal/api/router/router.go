package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coachdesk/coaching-platform/internal/appointments"
	"github.com/coachdesk/coaching-platform/internal/appointmenttypes"
	"github.com/coachdesk/coaching-platform/internal/availability"
	httpmiddleware "github.com/coachdesk/coaching-platform/internal/http/middleware"
	"github.com/coachdesk/coaching-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	CatalogHandler      *appointmenttypes.Handler
	AppointmentsHandler *appointments.Handler
	AdminAuthSecret     string
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/coaches/{coachID}", func(coach chi.Router) {
		coach.Use(requireCoachID)

		if cfg.AvailabilityHandler != nil {
			coach.Get("/slots", cfg.AvailabilityHandler.GetSlots)
			coach.Get("/slots/range", cfg.AvailabilityHandler.GetSlotsRange)
			coach.Route("/availability", func(r chi.Router) {
				r.Get("/", cfg.AvailabilityHandler.ListWindows)
				r.Post("/", cfg.AvailabilityHandler.CreateWindow)
				r.Put("/", cfg.AvailabilityHandler.ReplaceWindows)
				r.Patch("/{windowID}", cfg.AvailabilityHandler.UpdateWindow)
				r.Delete("/{windowID}", cfg.AvailabilityHandler.DeleteWindow)
			})
		}

		if cfg.CatalogHandler != nil {
			coach.Route("/appointment-types", func(r chi.Router) {
				r.Get("/", cfg.CatalogHandler.ListTypes)
				r.Post("/", cfg.CatalogHandler.CreateType)
				r.Patch("/{typeID}", cfg.CatalogHandler.UpdateType)
				r.Delete("/{typeID}", cfg.CatalogHandler.DeleteType)
			})
			coach.Route("/appointment-reasons", func(r chi.Router) {
				r.Get("/", cfg.CatalogHandler.ListReasons)
				r.Post("/", cfg.CatalogHandler.CreateReason)
				r.Put("/order", cfg.CatalogHandler.ReorderReasons)
				r.Patch("/{reasonID}", cfg.CatalogHandler.UpdateReason)
			})
		}

		if cfg.AppointmentsHandler != nil {
			coach.Route("/appointments", func(r chi.Router) {
				r.Get("/", cfg.AppointmentsHandler.List)
				r.Post("/", cfg.AppointmentsHandler.Create)
				r.Route("/{appointmentID}", func(apt chi.Router) {
					apt.Get("/", cfg.AppointmentsHandler.Get)
					apt.Patch("/", cfg.AppointmentsHandler.Update)
					apt.Post("/cancel", cfg.AppointmentsHandler.Cancel)
					apt.Post("/complete", cfg.AppointmentsHandler.Complete)
					apt.Post("/no-show", cfg.AppointmentsHandler.MarkNoShow)
					apt.Post("/join-credential", cfg.AppointmentsHandler.JoinCredential)
					// Hard delete is a privileged operation.
					apt.With(httpmiddleware.AdminJWT(cfg.AdminAuthSecret)).
						Delete("/", cfg.AppointmentsHandler.Delete)
				})
			})
		}
	})

	if cfg.AppointmentsHandler != nil {
		r.Get("/clients/{clientID}/appointments", cfg.AppointmentsHandler.ListForClient)
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
