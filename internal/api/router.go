/**
 * @description
 * This file sets up the HTTP router for the payments-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS, and authentication, and maps the routes to their
 * corresponding handler functions.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: CORS middleware (also answers OPTIONS preflights).
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cabinly/payments-service/pkg/middleware"
)

// Handlers bundles the route handlers wired by NewRouter.
type Handlers struct {
	Payout       *PayoutHandler
	Payment      *PaymentHandler
	Notification *NotificationHandler
	Sitemap      *SitemapHandler
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(auth *middleware.Authenticator, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public sitemap
	r.Get("/sitemap.xml", h.Sitemap.GetSitemap)

	// Group routes that require authentication
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Route("/payout-accounts", func(r chi.Router) {
			r.Post("/onboarding", h.Payout.CreateOnboarding)
			r.Get("/status", h.Payout.GetStatus)
		})

		r.Post("/payments/verify", h.Payment.VerifyPayment)
		r.Post("/notifications/send", h.Notification.SendNotification)
	})

	return r
}
