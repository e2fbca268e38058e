// Package gorm provides GORM-based database operations for prompt-tracker.
package gorm

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// nullTime returns the RFC3339 and epoch-millis columns for t.
func nullTime(t time.Time) (sql.NullString, sql.NullInt64) {
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true},
		sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// ParseLimitParam parses the "limit" query parameter from an HTTP request.
// Returns defaultLimit if the parameter is missing or invalid.
func ParseLimitParam(r *http.Request, defaultLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultLimit
}

// withLimit applies a LIMIT clause only for positive limits.
func withLimit(db *gorm.DB, limit int) *gorm.DB {
	if limit > 0 {
		return db.Limit(limit)
	}
	return db
}
