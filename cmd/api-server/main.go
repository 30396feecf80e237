package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hackgods/clinicdesk/internal/api"
	"github.com/hackgods/clinicdesk/internal/app"
	"github.com/hackgods/clinicdesk/internal/auth"
	"github.com/hackgods/clinicdesk/internal/config"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/logging"
	redisclient "github.com/hackgods/clinicdesk/internal/redis"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("api-server", cfg.Env, cfg.LogLevel)
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "clinicdesk-api",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry setup error")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error().Err(err).Msg("flush traces")
		}
	}()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	svc := app.New(pgPool, app.Options{
		Tokens:        tokens,
		Locker:        redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL),
		FamilyMaxSize: cfg.FamilyMaxSize,
		Logger:        logger,
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Tokens:        tokens,
		Tenancy:       db.TenantMiddleware(pgPool, cfg.DefaultTenant, auth.TenantClaim),
		LoginLimiter:  redisclient.NewRateLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow, "login"),
		Auth:          svc.Auth,
		Patients:      svc.Patients,
		Doctors:       svc.Doctors,
		Appointments:  svc.Appointments,
		Prescriptions: svc.Prescriptions,
		Medicines:     svc.Medicines,
		Dental:        svc.Dental,
		PostgresPing:  pgPool.Ping,
		RedisPing:     func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		Env:           cfg.Env,
		Version:       version,
	})

	srv := newServer(cfg.HTTPPort, otelhttp.NewHandler(router, "clinicdesk-api"))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("api-server stopped")
}

func newServer(port string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
