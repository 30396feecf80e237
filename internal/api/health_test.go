package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadiness(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		postgres Pinger
		redis    Pinger
		status   string
		code     int
	}{
		{"all up", up, up, "ok", http.StatusOK},
		{"redis down", up, down, "degraded", http.StatusOK},
		{"postgres down", down, up, "error", http.StatusServiceUnavailable},
		{"both down", down, down, "error", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.postgres, tt.redis, "test", "v1")
			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.code, rec.Code)
			var body ReadinessResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			assert.Equal(t, "v1", body.Version)
			assert.Len(t, body.Dependencies, 2)
		})
	}
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, "test", "v1")
	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"v1","env":"test"}`, rec.Body.String())
}
