package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/hackgods/clinicdesk/internal/telemetry"
)

const TopicPrefix = "clinicdesk."

// Record is an unpublished outbox row.
type Record struct {
	ID            uuid.UUID
	TenantID      string
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	Payload       []byte
	Traceparent   string
	CreatedAt     time.Time
}

// MessageWriter is the subset of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type RelayConfig struct {
	PollEvery time.Duration
	BatchSize int
}

// Relay moves outbox rows to Kafka. Rows are locked with SKIP LOCKED so several
// relays can run side by side, and marked published only after the write succeeds.
type Relay struct {
	pool      *pgxpool.Pool
	writer    MessageWriter
	logger    zerolog.Logger
	pollEvery time.Duration
	batchSize int
}

func NewRelay(pool *pgxpool.Pool, writer MessageWriter, logger zerolog.Logger, cfg RelayConfig) *Relay {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Relay{
		pool:      pool,
		writer:    writer,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// NewKafkaWriter builds a writer that keys partitions by aggregate id.
func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopping")
			return
		case <-ticker.C:
			n, err := r.PublishBatch(ctx)
			if err != nil {
				r.logger.Error().Err(err).Msg("outbox publish failed")
				continue
			}
			if n > 0 {
				r.logger.Info().Int("count", n).Msg("outbox events published")
			}
		}
	}
}

// PublishBatch publishes up to one batch and returns how many rows were sent.
func (r *Relay) PublishBatch(ctx context.Context) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := fetchUnpublished(ctx, tx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, toMessage(ctx, rec))
		ids = append(ids, rec.ID)
	}

	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("write kafka messages: %w", err)
	}
	if err := markPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit outbox tx: %w", err)
	}
	return len(records), nil
}

// Topic maps an event type such as "appointment.created" to its Kafka topic.
func Topic(eventType string) string {
	return TopicPrefix + strings.ToLower(eventType)
}

func toMessage(ctx context.Context, rec Record) kafka.Message {
	msg := kafka.Message{
		Topic: Topic(rec.EventType),
		Key:   []byte(rec.AggregateID.String()),
		Value: rec.Payload,
		Time:  rec.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(rec.ID.String())},
			{Key: "event_type", Value: []byte(rec.EventType)},
			{Key: "aggregate_type", Value: []byte(rec.AggregateType)},
			{Key: "tenant_id", Value: []byte(rec.TenantID)},
		},
	}
	msg.Headers = injectTraceHeaders(telemetry.WithTraceParent(ctx, rec.Traceparent), msg.Headers)
	return msg
}

func fetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, tenant_id, event_type, aggregate_type, aggregate_id, payload, traceparent, created_at
		FROM shared.event_logs
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.EventType, &rec.AggregateType,
			&rec.AggregateID, &rec.Payload, &rec.Traceparent, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func markPublished(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE shared.event_logs
		SET published_at = now()
		WHERE id = ANY($1)
	`, ids); err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}
