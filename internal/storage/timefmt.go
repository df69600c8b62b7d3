package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
)

// FormatTime renders t in the fixed-width UTC layout used for every stored timestamp.
func FormatTime(t time.Time) string {
	return t.UTC().Format(constants.TimestampFormat)
}

// NullTime renders an optional timestamp for a nullable column.
func NullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

// ParseTime parses a stored timestamp. RFC3339 values written by older
// versions are accepted too.
func ParseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t.UTC(), nil
}

// ParseNullTime parses a nullable stored timestamp.
func ParseNullTime(field string, value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := ParseTime(field, value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
