package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/telemetry"
)

// Event is a domain fact written to the outbox in the same transaction as the
// change it describes.
type Event struct {
	Type          string
	AggregateType string
	AggregateID   uuid.UUID
	Payload       any
}

// Recorder appends events to the outbox.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

var ErrNoTenant = errors.New("event recorded without a tenant in context")

// PgRecorder writes to shared.event_logs through whichever handle ctx carries,
// so a recorder call inside Transactor.InTx commits or rolls back with the change.
type PgRecorder struct {
	pool db.DBTX
	now  func() time.Time
}

func NewPgRecorder(pool db.DBTX) *PgRecorder {
	return &PgRecorder{pool: pool, now: time.Now}
}

func (r *PgRecorder) Record(ctx context.Context, ev Event) error {
	tenantID := db.TenantFromContext(ctx)
	if tenantID == "" {
		return ErrNoTenant
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", ev.Type, err)
	}

	_, err = db.Querier(ctx, r.pool).Exec(ctx, `
		INSERT INTO shared.event_logs
			(id, tenant_id, event_type, aggregate_type, aggregate_id, payload, traceparent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), tenantID, ev.Type, ev.AggregateType, ev.AggregateID, payload, telemetry.TraceParent(ctx), r.now())
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.Type, err)
	}
	return nil
}
