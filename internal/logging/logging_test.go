package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "api-server", "warn")

	logger.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn().Str("doctor_id", "d1").Msg("lock contention")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api-server", entry["service"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "d1", entry["doctor_id"])
}

func TestNewLoggerBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "seed", "loud")
	logger.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}
