package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "clinicdesk.appointment.created", Topic("appointment.created"))
	assert.Equal(t, "clinicdesk.patient.archived", Topic("Patient.Archived"))
}

func TestToMessage(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	rec := Record{
		ID:            uuid.New(),
		TenantID:      "north",
		EventType:     "appointment.created",
		AggregateType: "appointment",
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"status":"scheduled"}`),
		Traceparent:   "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		CreatedAt:     time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}

	msg := toMessage(context.Background(), rec)

	assert.Equal(t, "clinicdesk.appointment.created", msg.Topic)
	assert.Equal(t, rec.AggregateID.String(), string(msg.Key))
	assert.JSONEq(t, `{"status":"scheduled"}`, string(msg.Value))
	assert.Equal(t, rec.ID.String(), header(msg, "event_id"))
	assert.Equal(t, "north", header(msg, "tenant_id"))
	assert.Equal(t, rec.Traceparent, header(msg, "traceparent"))
}

func TestToMessageWithoutTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	msg := toMessage(context.Background(), Record{ID: uuid.New(), EventType: "patient.created"})
	assert.Empty(t, header(msg, "traceparent"))
}

func TestHeaderCarrierRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	tp := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	msg := kafka.Message{Headers: []kafka.Header{{Key: "traceparent", Value: []byte(tp)}}}

	ctx := ExtractTraceContext(context.Background(), msg)
	out := injectTraceHeaders(ctx, nil)
	require.Len(t, out, 1)
	assert.Equal(t, tp, string(out[0].Value))
}

func TestHeaderCarrierSetOverwrites(t *testing.T) {
	c := &headerCarrier{headers: []kafka.Header{{Key: "a", Value: []byte("1")}}}
	c.Set("a", "2")
	c.Set("b", "3")
	assert.Equal(t, "2", c.Get("a"))
	assert.Equal(t, []string{"a", "b"}, c.Keys())
}
