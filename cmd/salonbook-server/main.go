package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"salonbook/backend/internal/auth"
	"salonbook/backend/internal/cache"
	"salonbook/backend/internal/config"
	"salonbook/backend/internal/metrics"
	"salonbook/backend/internal/service"
	"salonbook/backend/internal/service/appointments"
	"salonbook/backend/internal/service/availability"
	"salonbook/backend/internal/service/calendar"
	"salonbook/backend/internal/service/catalog"
	"salonbook/backend/internal/service/scheduling"
	"salonbook/backend/internal/service/users"
	grpcTransport "salonbook/backend/internal/transport/grpc"
	"salonbook/backend/internal/transport/httpapi"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "salonbook-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "salonbook-server"),
	)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(ctx, log, cfg)
	if err != nil {
		os.Exit(1)
	}
	defer st.close()

	if cfg.MetricsEnabled {
		metrics.Register()
	}
	recorder := metrics.Recorder{}

	var (
		notifier  service.ChangeNotifier
		viewCache calendar.Cache
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable; calendar cache will miss until it recovers", slog.Any("err", err))
		}
		c := cache.NewCalendar(rdb, cfg.CacheTTL, cache.WithLogger(log), cache.WithLookupObserver(recorder))
		notifier, viewCache = c, c
		log.Info("calendar cache enabled", slog.String("redis_addr", cfg.RedisAddr))
	}

	resolver := scheduling.NewResolver(scheduling.Rules{
		Appointments: cfg.AppointmentOverlap,
		Availability: cfg.AvailabilityOverlap,
	}, recorder)

	apptSvc := appointments.NewService(st.scheduler, st.appointments, resolver,
		appointments.WithChangeNotifier(notifier),
		appointments.WithTransitionObserver(recorder),
	)
	availSvc := availability.NewService(st.scheduler, st.availability, resolver, notifier)
	projector := calendar.NewProjector(apptSvc, st.availability, viewCache)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Error("auth setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	authn := auth.NewAuthenticator(issuer, st.users)

	e := httpapi.New(httpapi.Deps{
		Appointments:  apptSvc,
		Availability:  availSvc,
		Calendar:      projector,
		Catalog:       catalog.NewService(st.services, catalog.WithChangeNotifier(notifier)),
		Users:         users.NewService(st.users),
		Authenticator: authn,
	}, httpapi.Config{
		RequestTimeout: cfg.GRPCRequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Metrics:        cfg.MetricsEnabled,
	}, log)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcTransport.RequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
			grpcTransport.AuthInterceptor(authn),
		),
	)
	grpcTransport.RegisterSchedulingService(grpcServer, grpcTransport.NewSchedulingServer(apptSvc, availSvc, projector, log))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcTransport.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	log.Info("servers started", slog.String("grpc_addr", cfg.GRPCAddr), slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped with error", slog.Any("err", err))
		}
	}
	healthServer.Shutdown()
	shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
}

func shutdown(log *slog.Logger, s *grpc.Server, h *http.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := h.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
