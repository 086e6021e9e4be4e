package services

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
)

// parseClientID parses a client id field that may arrive as free text
// ("12345", "12345.0", "0.0", ""). Malformed or placeholder values degrade
// to nil instead of failing the row; zero and negative values are treated
// as absent because upstream uses "0.0" as an explicit no-client marker.
func parseClientID(raw string) *int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	id := int64(math.Floor(f))
	if id <= 0 {
		return nil
	}
	return &id
}

// parseNullClientID applies parseClientID to a nullable column value.
func parseNullClientID(raw sql.NullString) *int64 {
	if !raw.Valid {
		return nil
	}
	return parseClientID(raw.String)
}
