package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/bizcal/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/easter/{year}
//	GET    /api/v1/calendars
//	GET    /api/v1/calendars/{name}
//	GET    /api/v1/calendars/{name}/days/{date}
//	GET    /api/v1/calendars/{name}/roll?date=&convention=&origin=
//	GET    /api/v1/calendars/{name}/advance?date=&n=&unit=&convention=  (or &period=3M)
//	GET    /api/v1/calendars/{name}/schedule?start=&end=&period=&convention=
//	GET    /api/v1/calendars/{name}/holidays?from=&to=&weekends=
//	POST   /api/v1/calendars                                (API key)
//	DELETE /api/v1/calendars/{name}                         (API key)
//	POST   /api/v1/calendars/{name}/holidays                (API key)
//	DELETE /api/v1/calendars/{name}/holidays/{date}         (API key)
//
// {name} may be a single calendar, "default", or a join such as TARGET+London.
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.Get("/health", handlers.HealthCheck)

	auth := AuthMiddleware(cfg, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/easter/{year}", handlers.GetEaster)

		r.Route("/calendars", func(r chi.Router) {
			r.Get("/", handlers.ListCalendars)
			r.With(auth).Post("/", handlers.CreateCalendar)

			r.Route("/{name}", func(r chi.Router) {
				// ==================================================================
				// Public routes
				// ==================================================================
				r.Get("/", handlers.GetCalendar)
				r.Get("/days/{date}", handlers.GetDay)
				r.Get("/roll", handlers.Roll)
				r.Get("/advance", handlers.Advance)
				r.Get("/schedule", handlers.Schedule)
				r.Get("/holidays", handlers.ListHolidays)

				// ==================================================================
				// Stored calendar management (API key)
				// ==================================================================
				r.With(auth).Delete("/", handlers.DeleteCalendar)
				r.With(auth).Post("/holidays", handlers.AddHoliday)
				r.With(auth).Delete("/holidays/{date}", handlers.DeleteHoliday)
			})
		})
	})

	return r
}
