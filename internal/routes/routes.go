package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/colemarsh/gatehouse/internal/auth"
	"github.com/colemarsh/gatehouse/internal/handlers"
	"github.com/colemarsh/gatehouse/internal/middleware"
	"github.com/colemarsh/gatehouse/internal/models"
	"github.com/colemarsh/gatehouse/internal/ratelimit"
	pkghttp "github.com/colemarsh/gatehouse/pkg/http"
)

// Dependencies carries everything the route tree needs
type Dependencies struct {
	AuthHandler    *handlers.AuthHandler
	AccountHandler *handlers.AccountHandler
	ContentHandler *handlers.ContentHandler
	TokenManager   *auth.TokenManager
	Limiter        *ratelimit.Limiter
	IPConfig       *pkghttp.IPConfig
	HealthCheck    func(r *http.Request) error
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	authLimit := middleware.RateLimit(deps.Limiter, ratelimit.ClassAuth, deps.IPConfig)
	generalLimit := middleware.RateLimit(deps.Limiter, ratelimit.ClassGeneral, deps.IPConfig)
	reviewLimit := middleware.RateLimit(deps.Limiter, ratelimit.ClassReview, deps.IPConfig)
	uploadLimit := middleware.RateLimit(deps.Limiter, ratelimit.ClassUpload, deps.IPConfig)

	router.Get("/health", healthHandler(deps.HealthCheck))

	// Public catalog. Identity is optional here; a valid token only changes
	// what the listing includes, never whether the request is served.
	router.With(auth.OptionalAuth(deps.TokenManager), generalLimit).
		Get("/apps", deps.ContentHandler.ListApps)

	// Public auth endpoints, strict per-IP budget
	router.Group(func(r chi.Router) {
		r.Use(authLimit)
		r.Post("/auth/signup", deps.AuthHandler.Signup)
		r.Post("/auth/verify", deps.AuthHandler.VerifyEmail)
		r.Post("/auth/resend", deps.AuthHandler.ResendVerification)
		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/refresh", deps.AuthHandler.Refresh)
		r.Post("/auth/logout", deps.AuthHandler.Logout)
	})

	// Authenticated surface
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.TokenManager))

		r.With(authLimit).Post("/auth/logout-all", deps.AuthHandler.LogoutAll)
		r.With(generalLimit).Get("/me", deps.AuthHandler.Me)

		r.With(reviewLimit).Post("/reviews", deps.ContentHandler.CreateReview)

		// Publisher actions need the DEVELOPER tier; admins pass everywhere
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleDeveloper, models.RoleAdmin))
			r.With(generalLimit).Post("/apps", deps.ContentHandler.CreateApp)
			r.With(uploadLimit).Post("/uploads", deps.ContentHandler.CreateUpload)
		})

		// Admin-only account administration
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleAdmin))
			r.Use(generalLimit)
			r.Get("/admin/accounts", deps.AccountHandler.List)
			r.Get("/admin/accounts/{id}", deps.AccountHandler.Get)
			r.Put("/admin/accounts/{id}/status", deps.AccountHandler.SetStatus)
		})
	})
}

// healthHandler reports liveness plus a store ping when one is wired
func healthHandler(check func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
