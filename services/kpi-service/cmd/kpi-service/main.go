package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicpulse/libs/auth"
	"github.com/md-rashed-zaman/clinicpulse/libs/config"
	"github.com/md-rashed-zaman/clinicpulse/libs/db"
	"github.com/md-rashed-zaman/clinicpulse/libs/httpx"
	"github.com/md-rashed-zaman/clinicpulse/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicpulse/libs/otel"
	"github.com/md-rashed-zaman/clinicpulse/libs/runtime"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/cache"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/consumer"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/handlers"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/ingest"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/retention"
	"github.com/md-rashed-zaman/clinicpulse/services/kpi-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "kpi-service")
	port, err := config.Port("PORT", "8087")
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

	repo := storage.NewScheduleRepository(pool)

	var store handlers.ScheduleStore = repo
	var invalidator ingest.CacheInvalidator
	var rdb *redis.Client
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		ttl := config.Duration("SCHEDULE_CACHE_TTL", 5*time.Minute)
		scheduleCache := cache.New(rdb, repo, ttl, logger)
		store = scheduleCache
		invalidator = scheduleCache
		logger.Info("schedule cache enabled (redis)", "addr", addr, "ttl", ttl.String())
	}

	brokers := strings.TrimSpace(config.String("KAFKA_BROKERS", ""))
	if brokers != "" {
		inboxRepo := inbox.NewRepository(pool)
		ingestCfg := consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "kpi-service"),
			Topic:   config.String("KAFKA_SCHEDULE_TOPIC", "scheduling.schedule.updated.v1"),
		}
		ingestConsumer := consumer.New(logger, inboxRepo, ingestCfg,
			ingest.NewScheduleHandler(repo, invalidator, logger))
		go ingestConsumer.Run(ctx)
	}

	if keepDays := config.Int("SCHEDULE_RETENTION_DAYS", 0); keepDays > 0 {
		sweeper := retention.NewWorker(repo, logger, retention.Config{
			Interval: config.Duration("RETENTION_SWEEP_INTERVAL", time.Hour),
			KeepDays: keepDays,
		})
		go sweeper.Run(ctx)
		logger.Info("schedule retention enabled", "keep_days", keepDays)
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if brokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(readyChecks...)

	kpiMux := http.NewServeMux()
	handlers.NewKPIHandler(store, logger).Register(kpiMux, "/api/v1/kpi")
	var kpiRoutes http.Handler = kpiMux
	if secret := config.String("JWT_SECRET", ""); secret != "" {
		var jwksClient *auth.JWKSClient
		if url := strings.TrimSpace(config.String("JWKS_URL", "")); url != "" {
			jwksClient = auth.NewJWKSClient(url, config.Duration("JWKS_CACHE_TTL", 5*time.Minute))
		}
		kpiRoutes = requireAuth(kpiMux, secret, jwksClient)
		logger.Info("kpi routes require a bearer token")
	}
	mux.Handle("/api/v1/kpi/", kpiRoutes)

	rateLimitMW := rateLimitMiddleware(rdb, logger)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "kpi")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
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
