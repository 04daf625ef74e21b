package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/proconnect/marketplace/libs/auth"
	"github.com/proconnect/marketplace/libs/config"
	"github.com/proconnect/marketplace/libs/db"
	"github.com/proconnect/marketplace/libs/grpcx"
	"github.com/proconnect/marketplace/libs/httpx"
	"github.com/proconnect/marketplace/libs/kafkax"
	otelx "github.com/proconnect/marketplace/libs/otel"
	"github.com/proconnect/marketplace/libs/runtime"
	"github.com/proconnect/marketplace/services/availability-service/internal/cache"
	"github.com/proconnect/marketplace/services/availability-service/internal/consumer"
	"github.com/proconnect/marketplace/services/availability-service/internal/handlers"
	"github.com/proconnect/marketplace/services/availability-service/internal/metrics"
	"github.com/proconnect/marketplace/services/availability-service/internal/outbox"
	"github.com/proconnect/marketplace/services/availability-service/internal/scheduling"
	"github.com/proconnect/marketplace/services/availability-service/internal/storage"
)

func main() {
	if config.String("ENV", "development") != "production" {
		_ = godotenv.Load()
	}

	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	grpcPort, err := config.Port("GRPC_PORT", "9095")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext(context.Background())
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
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	// Redis is optional: without it the schedule cache passes through and
	// rate limiting stays in process.
	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Optional: true,
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewAvailabilityMetrics(reg)

	professionals := storage.NewProfessionalRepository(pool)
	appointments := storage.NewAppointmentRepository(pool)
	outboxRepo := outbox.NewRepository()

	var cacheClient redis.Cmdable
	if rdb != nil {
		cacheClient = rdb
	}
	schedules := cache.NewScheduleCache(professionals, cacheClient,
		config.Duration("WORKING_HOURS_CACHE_TTL", 5*time.Minute), logger)

	svc := scheduling.NewService(schedules, appointments, scheduling.Config{
		GranularityMinutes: config.Int("SLOT_GRANULARITY_MINUTES", 30),
		ExcludePast:        config.Bool("EXCLUDE_PAST_SLOTS", true),
	}, logger, m)
	booker := scheduling.NewBooker(svc, pool, appointments, outboxRepo)
	editor := scheduling.NewScheduleEditor(schedules, pool, professionals, outboxRepo, schedules, logger)

	brokers := config.String("KAFKA_BROKERS", "")
	if brokers != "" {
		writer := kafkax.NewWriter(kafkax.SplitBrokers(brokers))
		defer writer.Close()
		publisher := outbox.NewPublisher(pool, outboxRepo, writer, logger, outbox.PublisherConfig{
			PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go publisher.Run(ctx)

		invalidations := consumer.New(logger, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", service),
			Topic:   scheduling.EventWorkingHoursUpdated,
		}, consumer.InvalidateWorkingHours(schedules))
		go invalidations.Run(ctx)

		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true})
	} else {
		logger.Warn("KAFKA_BROKERS not set; outbox events stay queued and cache invalidation is local only")
	}

	availabilityHandler := handlers.NewAvailabilityHandler(svc, logger)
	bookingHandler := handlers.NewBookingHandler(booker, logger)
	workingHoursHandler := handlers.NewWorkingHoursHandler(editor, logger)
	requireProfessional := auth.RequireRole(config.String("JWT_SECRET", "dev-secret"), auth.RoleProfessional)

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/api/v1/public/slots", availabilityHandler.Slots)
	mux.HandleFunc("/api/v1/public/available-days", availabilityHandler.AvailableDays)
	mux.HandleFunc("/api/v1/public/book", bookingHandler.Book)
	mux.Handle("/api/v1/appointments/cancel", requireProfessional(http.HandlerFunc(bookingHandler.Cancel)))
	mux.Handle("/api/v1/professionals/working-hours", requireProfessional(workingHoursHandler))

	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	var limiter httpx.Middleware
	if rdb != nil {
		limiter = httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service).Middleware(logger, true)
	} else {
		limiter = httpx.NewRateLimiter(rateLimit, time.Minute).Middleware()
	}

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithRecover(logger),
		httpx.WithAccessLog(logger),
		httpx.WithCORS(httpx.PublicCORSPolicy(config.List("CORS_ALLOWED_ORIGINS", ""))),
		limiter,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(config.Duration("HTTP_HANDLER_TIMEOUT", 10*time.Second)),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer, health := grpcx.NewServer(logger, service)
	lis, err := net.Listen("tcp", ":"+grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		panic(err)
	}
	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	grpcServer.GracefulStop()
	logger.Info("servers stopped")
}
