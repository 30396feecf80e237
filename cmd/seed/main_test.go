package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdaySchedule(t *testing.T) {
	sched := weekdaySchedule()
	require.NoError(t, sched.Normalize())

	assert.Len(t, sched[time.Monday], 2)
	assert.Len(t, sched[time.Saturday], 1)
	assert.Empty(t, sched[time.Sunday])
}
