package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/config"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/events"
	"github.com/hackgods/clinicdesk/internal/logging"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New("outbox-relay", cfg.Env, cfg.LogLevel)
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Fatal().Msg("KAFKA_BROKERS is required for the outbox relay")
	}
	logger.Info().
		Strs("brokers", brokers).
		Dur("interval", cfg.OutboxPollInterval).
		Int("batch_size", cfg.OutboxBatchSize).
		Msg("outbox-relay starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(rootCtx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "clinicdesk-outbox-relay",
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("telemetry setup error")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	writer := events.NewKafkaWriter(brokers)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing kafka writer")
		}
	}()

	relay := events.NewRelay(pgPool, writer, logger, relayConfig(cfg))
	relay.Run(rootCtx)
}

func relayConfig(cfg config.Config) events.RelayConfig {
	return events.RelayConfig{
		PollEvery: cfg.OutboxPollInterval,
		BatchSize: cfg.OutboxBatchSize,
	}
}
