package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPageClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"defaults", Page{}, Page{Limit: DefaultLimit}},
		{"max", Page{Limit: 500, Offset: 10}, Page{Limit: MaxLimit, Offset: 10}},
		{"negative offset", Page{Limit: 5, Offset: -3}, Page{Limit: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}

func TestRecordStatusValid(t *testing.T) {
	assert.True(t, RecordActive.Valid())
	assert.True(t, RecordArchived.Valid())
	assert.False(t, RecordStatus("deleted").Valid())
}

func TestHumanNumber(t *testing.T) {
	issued := time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)
	n := HumanNumber("APT", issued)
	assert.Regexp(t, `^APT-20260302-[0-9A-F]{6}$`, n)
	assert.NotEqual(t, n, HumanNumber("APT", issued))
}
