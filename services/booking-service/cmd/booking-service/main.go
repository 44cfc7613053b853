package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velora-app/velora/libs/config"
	"github.com/velora-app/velora/libs/db"
	"github.com/velora-app/velora/libs/httpx"
	"github.com/velora-app/velora/libs/kafkax"
	otelx "github.com/velora-app/velora/libs/otel"
	"github.com/velora-app/velora/libs/runtime"
	"github.com/velora-app/velora/libs/secretbox"
	"github.com/velora-app/velora/services/booking-service/internal/calendar"
	"github.com/velora-app/velora/services/booking-service/internal/handlers"
	"github.com/velora-app/velora/services/booking-service/internal/outbox"
	"github.com/velora-app/velora/services/booking-service/internal/storage"
	"github.com/velora-app/velora/services/booking-service/internal/vault"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	apptRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	configRepo := storage.NewCalendarConfigRepository(pool)
	credRepo := storage.NewCredentialRepository(pool)
	catalogRepo := storage.NewCatalogRepository(pool)

	var cipher secretbox.Cipher
	if key := config.String("CREDENTIALS_ENCRYPTION_KEY", ""); key != "" {
		c, err := secretbox.New(key)
		if err != nil {
			logger.Error("credential cipher init failed", "err", err)
			panic(err)
		}
		cipher = c
	}
	secrets := vault.New(credRepo, cipher, logger)

	connector := calendar.NewConnector(configRepo, apptRepo, secrets, logger)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	bookingHandler := handlers.NewBookingHandler(connector, apptRepo, catalogRepo, configRepo, logger)
	settingsHandler := handlers.NewSettingsHandler(configRepo, secrets, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", bookingHandler.Slots)
	mux.HandleFunc("/api/v1/public/book", bookingHandler.Book)
	mux.HandleFunc("/api/v1/appointments", bookingHandler.List)
	mux.HandleFunc("/api/v1/appointments/available", bookingHandler.Available)
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/complete", bookingHandler.Complete)
	mux.HandleFunc("/api/v1/settings/calendar", settingsHandler.Calendar)
	mux.HandleFunc("/api/v1/services", catalogHandler.Services)
	mux.HandleFunc("/api/v1/locations", catalogHandler.Locations)

	// Public endpoints are rate limited per client IP. Redis keeps the counter
	// shared across replicas; without it each replica counts alone.
	rateLimit := config.Int("RATE_LIMIT_REQUESTS", 120)
	rateWindow := config.Duration("RATE_LIMIT_WINDOW", time.Minute)
	var limiterMiddleware httpx.Middleware
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiterMiddleware = httpx.NewRedisRateLimiter(rdb, rateLimit, rateWindow, service).Middleware(logger, true)
	} else {
		limiterMiddleware = httpx.NewRateLimiter(rateLimit, rateWindow).Middleware()
	}

	corsOrigins := splitOrigins(config.String("CORS_ALLOWED_ORIGINS", ""))
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		limiterMiddleware,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Content-Type", "X-Spa-Id"},
			MaxAge:         10 * time.Minute,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func splitOrigins(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
