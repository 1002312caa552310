package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/jmercadier/raccordement-platform/cmd/mainconfig"
	"github.com/jmercadier/raccordement-platform/internal/admin"
	"github.com/jmercadier/raccordement-platform/internal/api/router"
	appconfig "github.com/jmercadier/raccordement-platform/internal/config"
	"github.com/jmercadier/raccordement-platform/internal/leads"
	"github.com/jmercadier/raccordement-platform/internal/notify"
	"github.com/jmercadier/raccordement-platform/internal/observability/metrics"
	"github.com/jmercadier/raccordement-platform/internal/payments"
	"github.com/jmercadier/raccordement-platform/internal/requests"
	"github.com/jmercadier/raccordement-platform/internal/wizard"
	"github.com/jmercadier/raccordement-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting raccordement-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Redis backs wizard sessions and the payment reference cache.
	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Repositories. Without DATABASE_URL everything runs in memory,
	// which is enough for local frontend work.
	var (
		requestsRepo requests.Repository
		leadsRepo    leads.Repository
		paymentsRepo *payments.PostgresRepository
		adminDB      *sql.DB
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		requestsRepo = requests.NewPostgresRepository(pool)
		leadsRepo = leads.NewPostgresRepository(pool)
		paymentsRepo = payments.NewPostgresRepository(pool)

		adminDB, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open admin db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = adminDB.Close() }()
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		requestsRepo = requests.NewInMemoryRepository()
		leadsRepo = leads.NewInMemoryRepository()
	}

	metricsHandler, requestMetrics, wizardMetrics, paymentMetrics := setupMetrics()

	// Email delivery.
	var templateSource notify.TemplateSource
	var smtpStore *admin.SMTPStore
	if adminDB != nil {
		templateSource = admin.NewTemplateStore(adminDB)
		smtpStore = admin.NewSMTPStore(adminDB)
	}
	sender := buildEmailSender(ctx, cfg, smtpStore, logger)
	notifier := notify.NewService(sender, notify.NewRenderer(templateSource), logger).
		WithAdminNotifications(cfg.NotifyAdminEmail)

	// Wizard.
	sessionStore := wizard.NewSessionStore(redisClient, cfg.WizardSessionTTL)
	creator := wizard.NewRepositoryCreator(requestsRepo, notifier, logger)
	wizardHandler := wizard.NewHandler(sessionStore, creator, cfg.ConfirmTransitionDelay, wizardMetrics, logger)

	// Payments.
	lookup := payments.NewCachedReferenceLookup(requestsRepo, redisClient, cfg.ReferenceCacheTTL, logger)
	stripeSvc := payments.NewStripeIntentService(cfg.StripeSecretKey, cfg.PaymentCurrency, logger).
		WithDryRun(cfg.StripeDryRun).
		WithMetrics(paymentMetrics)

	var recorder payments.AttemptRecorder
	var intentStore payments.IntentStore
	if paymentsRepo != nil {
		recorder = paymentsRepo
		intentStore = paymentsRepo
	}
	orchestrator := payments.NewOrchestrator(
		lookup, stripeSvc, stripeSvc, recorder, requestsRepo, intentStore,
		cfg.ServiceAmountCents, cfg.PaymentCurrency, paymentMetrics, logger)
	paymentsHandler := payments.NewHandler(
		lookup, stripeSvc, orchestrator, recorder, intentStore,
		cfg.ServiceAmountCents, paymentMetrics, logger)
	if paymentsRepo != nil {
		paymentsHandler = paymentsHandler.WithAttemptLister(paymentsRepo)
	}

	var stripeWebhook *payments.StripeWebhookHandler
	if paymentsRepo != nil {
		stripeWebhook = payments.NewStripeWebhookHandler(
			cfg.StripeWebhookSecret, requestsRepo, paymentsRepo, paymentsRepo, lookup, logger)
	} else {
		stripeWebhook = payments.NewStripeWebhookHandler(
			cfg.StripeWebhookSecret, requestsRepo, nil, nil, lookup, logger)
	}
	stripeWebhook = stripeWebhook.WithReceiptNotifier(notifier)

	// Back office.
	routerCfg := &router.Config{
		Logger:             logger,
		WizardHandler:      wizardHandler,
		RequestsHandler:    requests.NewHandler(requestsRepo, notifier, requestMetrics, logger),
		PaymentsHandler:    paymentsHandler,
		StripeWebhook:      stripeWebhook,
		LeadsHandler:       leads.NewHandler(leadsRepo, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SubmitRateLimit:    cfg.PublicRateLimit,
		SubmitRateBurst:    cfg.PublicRateBurst,
	}
	if adminDB != nil {
		routerCfg.DashboardHandler = admin.NewDashboardHandler(adminDB, logger)
		routerCfg.TemplateHandler = admin.NewTemplateHandler(admin.NewTemplateStore(adminDB), logger)
		routerCfg.SMTPHandler = admin.NewSMTPHandler(smtpStore, logger)
		routerCfg.SettingsHandler = admin.NewSettingsHandler(admin.NewSettingsStore(adminDB), logger)
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics builds the Prometheus registry and the per-domain metric
// bundles exported on /metrics.
func setupMetrics() (http.Handler, *metrics.RequestMetrics, *metrics.WizardMetrics, *metrics.PaymentMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler,
		metrics.NewRequestMetrics(reg),
		metrics.NewWizardMetrics(reg),
		metrics.NewPaymentMetrics(reg)
}

// buildEmailSender picks the delivery mechanism from EMAIL_PROVIDER.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, smtpStore *admin.SMTPStore, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "smtp":
		if smtpStore == nil {
			logger.Warn("smtp provider needs a database for its settings, falling back to stub")
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSMTPSender(smtpStore, logger)
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			logger.Warn("SENDGRID_API_KEY not set, falling back to stub")
			return notify.NewStubEmailSender(logger)
		}
		return sender
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, falling back to stub", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	default:
		return notify.NewStubEmailSender(logger)
	}
}
