package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/investment-portal/internal/handlers"
	"github.com/BradenHooton/investment-portal/internal/middleware"
)

// Handlers groups the HTTP handlers mounted under /api
type Handlers struct {
	Auth      *handlers.AuthHandler
	Admin     *handlers.AdminHandler
	Brokerage *handlers.BrokerageHandler
}

// RegisterRoutes registers all /api routes. Every route runs inside the
// session middleware; login and registration are additionally rate limited.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	sessionMiddleware func(http.Handler) http.Handler,
	rateLimitConfig middleware.RateLimitConfig,
) {
	limited := middleware.RateLimitByIP(rateLimitConfig)

	router.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware)

		// Client account
		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/register", h.Auth.Register)
			r.With(limited).Post("/login", h.Auth.Login)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/profile", h.Auth.GetProfile)
			r.Put("/profile", h.Auth.UpdateProfile)
			r.Post("/change-password", h.Auth.ChangePassword)
			r.Get("/status", h.Auth.Status)
		})

		// Staff console
		r.Route("/admin", func(r chi.Router) {
			r.With(limited).Post("/login", h.Admin.Login)
			r.Post("/logout", h.Admin.Logout)
			r.Get("/me", h.Admin.Me)
			r.Get("/clients", h.Admin.ListClients)
			r.Get("/clients/{id}", h.Admin.GetClient)
			r.Put("/clients/{id}/status", h.Admin.UpdateClientStatus)
			r.Get("/dashboard/stats", h.Admin.DashboardStats)
			r.Get("/audit-logs", h.Admin.ListAuditLogs)
		})

		// Brokerage link
		r.Route("/brokerage", func(r chi.Router) {
			r.Post("/create-link-token", h.Brokerage.CreateLinkToken)
			r.Post("/exchange-public-token", h.Brokerage.ExchangePublicToken)
			r.Get("/status", h.Brokerage.Status)
			r.Get("/portfolio", h.Brokerage.Portfolio)
			r.Get("/holdings", h.Brokerage.Holdings)
			r.Get("/transactions", h.Brokerage.Transactions)
			r.Post("/disconnect", h.Brokerage.Disconnect)
		})
	})
}
