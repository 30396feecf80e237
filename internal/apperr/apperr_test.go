package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindSentinel(t *testing.T) {
	errPatientNotFound := NotFound("patient_not_found", "patient not found")
	wrapped := fmt.Errorf("load patient: %w", errPatientNotFound)

	assert.True(t, errors.Is(wrapped, errPatientNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestIsDistinguishesCodes(t *testing.T) {
	a := Conflict("duplicate_self", "family already has a primary member")
	b := Conflict("double_booking", "doctor already booked")

	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrConflict))
}

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	sentinel := Conflict("double_booking", "doctor already booked")
	cause := errors.New("pg: exclusion violation")
	err := Wrap(sentinel, cause)

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "doctor already booked")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
