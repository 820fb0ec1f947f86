package http

import (
	"log/slog"

	"github.com/cmlabs-hris/stamp-correction/internal/handler/http/middleware"
	"github.com/cmlabs-hris/stamp-correction/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterOptions carries the settings the router reads from configuration
type RouterOptions struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string
}

func NewRouter(
	opts RouterOptions,
	JWTService jwt.Service,
	correctionHandler CorrectionHandler,
	attendanceHandler AttendanceHandler,
	eventHandler EventHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)

	if opts.Logger != nil {
		r.Use(httplog.RequestLogger(opts.Logger, &httplog.Options{
			Level:  opts.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Authenticated by the short-lived SSE token in the query string
		r.Get("/stamp-requests/events", eventHandler.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))

			r.Route("/stamp-requests", func(r chi.Router) {
				r.Post("/", correctionHandler.Submit)
				r.Post("/events/token", eventHandler.GetSSEToken)

				r.Route("/my", func(r chi.Router) {
					r.Get("/", correctionHandler.ListMine)
					r.Get("/count", correctionHandler.CountMine)
				})

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/pending", correctionHandler.ListPending)
					r.Get("/pending/count", correctionHandler.CountPending)
					r.Post("/bulk-approve", correctionHandler.BulkApprove)
					r.Post("/bulk-reject", correctionHandler.BulkReject)
				})

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", correctionHandler.Get)
					r.Post("/cancel", correctionHandler.Cancel)
					r.With(middleware.AdminOnly).Post("/approve", correctionHandler.Approve)
					r.With(middleware.AdminOnly).Post("/reject", correctionHandler.Reject)
				})
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Get("/summary", attendanceHandler.Summary)
			})
		})
	})
	return r
}
