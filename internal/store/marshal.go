package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/roach88/yodascan/internal/ir"
)

// timeLayout is the created_at encoding. Fixed width keeps lexical and
// chronological order identical.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", s, err)
	}
	return t, nil
}

// marshalSkipped converts the skipped point list to canonical JSON TEXT.
func marshalSkipped(skipped []string) (string, error) {
	data, err := ir.MarshalCanonical(skipped)
	if err != nil {
		return "", fmt.Errorf("marshal skipped: %w", err)
	}
	return string(data), nil
}

// unmarshalSkipped parses the skipped point list.
func unmarshalSkipped(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal skipped: %w", err)
	}
	return out, nil
}

// nullableFloat maps NaN to NULL, which is what SQLite would store anyway.
func nullableFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func floatOrNaN(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
