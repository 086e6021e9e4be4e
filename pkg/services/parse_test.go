package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClientID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *int64
	}{
		{"plain integer", "12345", i64p(12345)},
		{"float form", "12345.0", i64p(12345)},
		{"fractional part floored", "12345.9", i64p(12345)},
		{"surrounding whitespace", "  678  ", i64p(678)},
		{"no-client marker", "0.0", nil},
		{"zero", "0", nil},
		{"negative", "-5", nil},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"non-numeric", "N/A", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseClientID(tc.raw)
			if tc.expected == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tc.expected, *got)
			}
		})
	}
}

func TestParseNullClientID(t *testing.T) {
	assert.Nil(t, parseNullClientID(sql.NullString{}))

	got := parseNullClientID(sql.NullString{String: "42.0", Valid: true})
	assert.NotNil(t, got)
	assert.Equal(t, int64(42), *got)
}

// i64p is a test helper for pointer-valued ids.
func i64p(v int64) *int64 {
	return &v
}
