package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperationMetrics(t *testing.T) {
	var om OperationMetrics
	for i := 1; i <= 100; i++ {
		o := outcomeSuccess
		if i%10 == 0 {
			o = outcomeConflict
		}
		om.Record(time.Duration(i)*time.Millisecond, o)
	}

	assert.EqualValues(t, 100, om.Total)
	assert.EqualValues(t, 90, om.Success)
	assert.EqualValues(t, 10, om.Conflict)

	avg, lo, hi, p50, p95 := om.Stats()
	assert.Equal(t, 50500*time.Microsecond, avg)
	assert.Equal(t, time.Millisecond, lo)
	assert.Equal(t, 100*time.Millisecond, hi)
	assert.Equal(t, 51*time.Millisecond, p50)
	assert.Equal(t, 96*time.Millisecond, p95)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, outcomeSuccess, outcomeOf(http.StatusCreated, nil, http.StatusCreated))
	assert.Equal(t, outcomeConflict, outcomeOf(http.StatusConflict, nil, http.StatusCreated))
	assert.Equal(t, outcomeConflict, outcomeOf(http.StatusUnprocessableEntity, nil, http.StatusOK))
	assert.Equal(t, outcomeError, outcomeOf(http.StatusInternalServerError, nil, http.StatusOK))
	assert.Equal(t, outcomeError, outcomeOf(0, assert.AnError, http.StatusOK))
}
