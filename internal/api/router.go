// Package api is the backend-for-frontend HTTP surface of the console: one
// onboarding flow and dashboard per browser session cookie.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ebrhq/backoffice/internal/console"
	"github.com/ebrhq/backoffice/internal/metrics"
	"github.com/ebrhq/backoffice/internal/ratelimit"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Pool           *console.Pool
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.Limiter
	DB             Pinger
	Cookie         CookieConfig
	AllowedOrigins []string
	Now            func() time.Time
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	if deps.Cookie.Name == "" {
		deps.Cookie.Name = "ebr_session"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))

	r.Get("/health", healthHandler(deps.DB))

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Exposition())
		r.Get("/metrics/summary", deps.Metrics.Handler())
	}

	flow := &flowHandler{pool: deps.Pool}
	ws := &workspaceHandler{now: deps.Now}
	throttle := throttler(deps)

	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(sessionMiddleware(deps.Pool, deps.Cookie))

		ar.Get("/state", flow.State)
		ar.Post("/error/clear", flow.ClearError)

		ar.With(throttle("login")).Post("/login", flow.Login)
		ar.Post("/logout", flow.Logout)

		ar.Post("/registration/start", flow.StartRegistration)
		ar.With(throttle("registration")).Post("/registration", flow.SubmitRegistration)
		ar.Post("/registration/back", flow.BackToLogin)

		ar.With(throttle("email")).Post("/email/validate", flow.ValidateEmail)
		ar.With(throttle("email")).Post("/email/auto", flow.AutoValidate)
		ar.With(throttle("email")).Post("/email/resend", flow.ResendCode)

		ar.Get("/offers", flow.LoadOffers)
		ar.Post("/offers/select", flow.SelectOffer)
		ar.Post("/offers/continue", flow.Continue)
		ar.Post("/offers/later", flow.ChooseLater)

		ar.With(throttle("payment")).Post("/payment", flow.SubmitPayment)
		ar.Post("/payment/close", flow.ClosePayment)

		ar.Post("/companies/start", flow.StartAddCompany)
		ar.Post("/companies", flow.SubmitCompany)
		ar.Post("/companies/cancel", flow.CancelAddCompany)
		ar.Post("/companies/switch", flow.SwitchCompany)

		// Dashboard pages.
		ar.Get("/employees", ws.ListEmployees)
		ar.Post("/employees", ws.CreateEmployee)
		ar.Put("/employees/{id}", ws.UpdateEmployee)
		ar.Delete("/employees/{id}", ws.DeleteEmployee)
		ar.Post("/employees/{id}/journee", ws.ToggleJournee)

		ar.Get("/menus", ws.ListMenus)
		ar.Post("/menus", ws.CreateMenu)
		ar.Post("/menus/packs", ws.CreatePack)
		ar.Get("/menus/packs/{id}", ws.PackDetails)
		ar.Put("/menus/{id}", ws.UpdateMenu)
		ar.Delete("/menus/{id}", ws.DeleteMenu)
		ar.Post("/menus/{id}/activate", ws.ActivateMenu)
		ar.Post("/menus/{id}/deactivate", ws.DeactivateMenu)

		ar.Get("/tables", ws.ListTables)
		ar.Post("/tables", ws.CreateTable)
		ar.Post("/tables/toggle", ws.ToggleTables)
		ar.Put("/tables/{id}", ws.UpdateTable)
		ar.Delete("/tables/{id}", ws.DeleteTable)

		ar.Get("/stats", ws.Stats)
	})

	return r
}

// throttler returns the per-scope rate limit middleware, or a pass-through
// when no limiter is configured.
func throttler(deps RouterDeps) func(scope string) func(http.Handler) http.Handler {
	return func(scope string) func(http.Handler) http.Handler {
		if deps.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		var onReject func(string)
		if deps.Metrics != nil {
			onReject = deps.Metrics.IncRateLimitRejection
		}
		return ratelimit.Middleware(deps.Limiter, scope, 0, onReject)
	}
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok"}
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["database"] = "unreachable"
				writeJSON(w, http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "connected"
		}
		writeJSON(w, http.StatusOK, body)
	}
}
