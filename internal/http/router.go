package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/unitrack/internal/http/application"
	"github.com/MrJamesThe3rd/unitrack/internal/http/followup"
	"github.com/MrJamesThe3rd/unitrack/internal/http/invoice"
	"github.com/MrJamesThe3rd/unitrack/internal/http/middleware"
	"github.com/MrJamesThe3rd/unitrack/internal/http/reference"
)

type Options struct {
	Logger         *slog.Logger
	Auth           *middleware.Auth
	AllowedOrigins []string
	// RateLimit is optional; nil disables it.
	RateLimit func(http.Handler) http.Handler
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only enable it behind a proxy that overwrites those headers, since the
	// rate limiter keys on the resulting address.
	TrustProxy bool
}

func New(
	opts Options,
	applicationsV1 *application.Handler,
	invoicesV1 *invoice.Handler,
	referenceV1 *reference.Handler,
	followUpsV1 *followup.Handler,
) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := chi.NewRouter()

	if opts.TrustProxy {
		router.Use(chimw.RealIP)
	}

	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.RateLimit != nil {
		router.Use(opts.RateLimit)
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Auth.Authenticate)

		r.Route("/applications", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			applicationsV1.Routes(r)
		})

		r.Route("/invoices", invoicesV1.Routes)

		r.Route("/reference", referenceV1.Routes)

		r.Route("/follow-ups", followUpsV1.Routes)
	})

	return router
}
