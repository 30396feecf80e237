package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HumanNumber builds a reference such as APT-20260302-4F9A1C from a prefix,
// the day it was issued and six random hex digits.
func HumanNumber(prefix string, issued time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return prefix + "-" + issued.Format("20060102") + "-" + suffix
}
