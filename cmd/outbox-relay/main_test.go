package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hackgods/clinicdesk/internal/config"
)

func TestRelayConfig(t *testing.T) {
	got := relayConfig(config.Config{OutboxPollInterval: 3 * time.Second, OutboxBatchSize: 25})
	assert.Equal(t, 3*time.Second, got.PollEvery)
	assert.Equal(t, 25, got.BatchSize)
}
