package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ateliercarvalho/atelier/cmd/mainconfig"
	"github.com/ateliercarvalho/atelier/internal/admin"
	"github.com/ateliercarvalho/atelier/internal/api/router"
	"github.com/ateliercarvalho/atelier/internal/app/bootstrap"
	"github.com/ateliercarvalho/atelier/internal/auth"
	"github.com/ateliercarvalho/atelier/internal/availability"
	appconfig "github.com/ateliercarvalho/atelier/internal/config"
	"github.com/ateliercarvalho/atelier/internal/deeplink"
	"github.com/ateliercarvalho/atelier/internal/http/handlers"
	httpmiddleware "github.com/ateliercarvalho/atelier/internal/http/middleware"
	"github.com/ateliercarvalho/atelier/internal/observability/metrics"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting atelier API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"mock", cfg.UseMock,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, atelierMetrics := setupMetrics()

	backend := bootstrap.BuildBackend(cfg, atelierMetrics, logger)
	cache := availability.NewCache(atelierMetrics)
	go cache.Run(ctx, janitorInterval)
	avail := availability.NewService(backend, cache, logger)

	customerAuth, err := bootstrap.BuildCustomerAuth(cfg, atelierMetrics, logger)
	if err != nil {
		logger.Error("failed to build customer auth", "error", err)
		os.Exit(1)
	}
	adminClient := bootstrap.AdminClient(cfg, atelierMetrics, logger)
	adminAuth := auth.NewAdminAuth(adminClient)

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	ledger := bootstrap.BuildLedger(pool, logger)

	notifier := bootstrap.BuildNotifier(cfg, sesClient(ctx, cfg, logger), logger)

	sessions := httpmiddleware.NewSessions(httpmiddleware.SessionConfig{
		Store:    bootstrap.BuildSessionStore(redisClient, cfg.SessionTTL, logger),
		Customer: customerAuth,
		Admin:    adminAuth,
		Cookie:   cfg.SessionCookie,
		TTL:      cfg.SessionTTL,
		Secure:   cfg.CookieSecure,
		Logger:   logger,
		Metrics:  atelierMetrics,
	})
	go sessions.Run(ctx, janitorInterval)
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx, janitorInterval)

	publicCfg := handlers.PublicConfig{
		Availability: avail,
		Links:        deeplink.NewBuilder(cfg.MessagingHost),
		Contact:      cfg.WhatsAppContact,
		Metrics:      atelierMetrics,
		Logger:       logger,
	}
	adminCfg := handlers.AdminConfig{
		Customers:    admin.NewCustomerService(adminClient),
		Appointments: admin.NewAppointmentService(adminClient),
		Settings:     admin.NewSettingsService(adminClient),
		Location:     cfg.Location(),
		SearchDelay:  cfg.SearchDebounce,
		Logger:       logger,
	}
	if ledger != nil {
		publicCfg.Recorder = ledger
		adminCfg.Submissions = ledger
	}
	if notifier.Enabled() {
		publicCfg.Notifier = notifier
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(backend.Name(), healthChecks(redisClient, pool)),
		Public:             handlers.NewPublicHandler(publicCfg),
		Auth:               handlers.NewAuthHandler(customerAuth, adminAuth, logger),
		Admin:              handlers.NewAdminHandler(adminCfg),
		Sessions:           sessions,
		RateLimiter:        limiter,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the atelier collectors on a private registry
// alongside the Go and process collectors.
func setupMetrics() (http.Handler, *metrics.AtelierMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewAtelierMetrics(reg)
}

// sesClient is only built when SES is the selected email provider.
func sesClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *sesv2.Client {
	if cfg.EmailProvider != "ses" {
		return nil
	}
	client, err := mainconfig.NewSESClient(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config for SES", "error", err)
		return nil
	}
	return client
}

func healthChecks(redisClient *redis.Client, pool *pgxpool.Pool) map[string]handlers.CheckFunc {
	checks := map[string]handlers.CheckFunc{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	return checks
}
