package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jmercadier/raccordement-platform/internal/admin"
	httpmiddleware "github.com/jmercadier/raccordement-platform/internal/http/middleware"
	"github.com/jmercadier/raccordement-platform/internal/leads"
	"github.com/jmercadier/raccordement-platform/internal/payments"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/internal/wizard"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	WizardHandler   *wizard.Handler
	RequestsHandler *requests.Handler
	PaymentsHandler *payments.Handler
	StripeWebhook   *payments.StripeWebhookHandler
	LeadsHandler    *leads.Handler

	// Back office handlers (optional, enabled together with AdminAuthSecret)
	DashboardHandler *admin.DashboardHandler
	TemplateHandler  *admin.TemplateHandler
	SMTPHandler      *admin.SMTPHandler
	SettingsHandler  *admin.SettingsHandler

	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Requests/sec and burst for the public submit endpoints. Zero
	// disables rate limiting (tests).
	SubmitRateLimit float64
	SubmitRateBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

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

	submitLimit := func(next http.Handler) http.Handler { return next }
	if cfg.SubmitRateLimit > 0 {
		submitLimit = httpmiddleware.RateLimit(cfg.SubmitRateLimit, cfg.SubmitRateBurst)
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		if cfg.WizardHandler != nil {
			public.Route("/api/wizard", func(w chi.Router) {
				w.Post("/", cfg.WizardHandler.CreateSession)
				w.Route("/{sessionID}", func(s chi.Router) {
					s.Get("/", cfg.WizardHandler.GetSession)
					s.Patch("/", cfg.WizardHandler.UpdateFields)
					s.Post("/submit", cfg.WizardHandler.Submit)
					s.Post("/edit", cfg.WizardHandler.Edit)
					s.With(submitLimit).Post("/confirm", cfg.WizardHandler.Confirm)
				})
			})
		}

		if cfg.RequestsHandler != nil {
			public.With(submitLimit).Post("/api/requests", cfg.RequestsHandler.Create)
			public.Get("/api/requests/{reference}", cfg.RequestsHandler.GetByReference)
		}

		if cfg.PaymentsHandler != nil {
			public.Route("/api/payments", func(p chi.Router) {
				p.Post("/intent", cfg.PaymentsHandler.CreateIntent)
				p.With(submitLimit).Post("/process", cfg.PaymentsHandler.ProcessPayment)
				p.Post("/failed-attempt", cfg.PaymentsHandler.RecordFailedAttempt)
			})
		}
		if cfg.StripeWebhook != nil {
			public.Post("/webhooks/stripe", cfg.StripeWebhook.Handle)
		}

		if cfg.LeadsHandler != nil {
			public.With(submitLimit).Post("/api/leads", cfg.LeadsHandler.CreateLead)
		}

		if cfg.SettingsHandler != nil {
			public.Get("/api/settings", cfg.SettingsHandler.PublicSettings)
		}
	})

	// Admin routes, protected by an HMAC-signed JWT
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(adminRoutes chi.Router) {
			adminRoutes.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			if cfg.RequestsHandler != nil {
				adminRoutes.Get("/requests", cfg.RequestsHandler.List)
				adminRoutes.Patch("/requests/{reference}/status", cfg.RequestsHandler.UpdateStatus)
			}
			if cfg.LeadsHandler != nil {
				adminRoutes.Get("/leads", cfg.LeadsHandler.ListLeads)
				adminRoutes.Get("/leads/{leadID}", cfg.LeadsHandler.GetLead)
				adminRoutes.Patch("/leads/{leadID}/status", cfg.LeadsHandler.UpdateStatus)
			}
			if cfg.PaymentsHandler != nil {
				adminRoutes.Get("/payments/failed-attempts", cfg.PaymentsHandler.ListFailedAttempts)
			}
			if cfg.DashboardHandler != nil {
				adminRoutes.Get("/dashboard", cfg.DashboardHandler.Overview)
			}
			if cfg.TemplateHandler != nil {
				adminRoutes.Route("/templates", func(t chi.Router) {
					t.Get("/", cfg.TemplateHandler.List)
					t.Post("/", cfg.TemplateHandler.Create)
					t.Get("/{key}", cfg.TemplateHandler.Get)
					t.Put("/{key}", cfg.TemplateHandler.Update)
					t.Delete("/{key}", cfg.TemplateHandler.Delete)
				})
			}
			if cfg.SMTPHandler != nil {
				adminRoutes.Get("/settings/smtp", cfg.SMTPHandler.Get)
				adminRoutes.Put("/settings/smtp", cfg.SMTPHandler.Update)
			}
			if cfg.SettingsHandler != nil {
				adminRoutes.Get("/settings", cfg.SettingsHandler.List)
				adminRoutes.Get("/settings/{key}", cfg.SettingsHandler.Get)
				adminRoutes.Put("/settings/{key}", cfg.SettingsHandler.Update)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
