package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "%"},
		{"98765", "98765%"},
		{"Jo", "Jo%"},
		{"50%", `50\%%`},
		{"a_b", `a\_b%`},
		{`c:\tmp`, `c:\\tmp%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LikePrefix(tt.in), tt.in)
	}
}
