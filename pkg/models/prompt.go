// Package models contains domain models for prompt-tracker.
package models

import (
	"database/sql"
	"time"
)

// UnknownLabel is the working directory label used when no cwd was reported.
const UnknownLabel = "unknown"

// PromptRecord is one submitted prompt within a Claude Code session.
// A record is open while CompletedAt is null.
type PromptRecord struct {
	SessionID        string         `db:"session_id" json:"session_id"`
	PromptText       string         `db:"prompt_text" json:"prompt_text"`
	WorkingDirLabel  string         `db:"working_dir_label" json:"working_dir_label"`
	WorkingDir       string         `db:"working_dir" json:"working_dir"`
	CreatedAt        string         `db:"created_at" json:"created_at"`
	CompletedAt      sql.NullString `db:"completed_at" json:"completed_at,omitempty"`
	LastWaitAt       sql.NullString `db:"last_wait_at" json:"last_wait_at,omitempty"`
	ID               int64          `db:"id" json:"id"`
	Seq              int            `db:"seq" json:"seq"`
	CreatedAtEpoch   int64          `db:"created_at_epoch" json:"created_at_epoch"`
	CompletedAtEpoch sql.NullInt64  `db:"completed_at_epoch" json:"completed_at_epoch,omitempty"`
	LastWaitAtEpoch  sql.NullInt64  `db:"last_wait_at_epoch" json:"last_wait_at_epoch,omitempty"`
}

// IsOpen reports whether the record is still in flight.
func (r *PromptRecord) IsOpen() bool {
	return !r.CompletedAtEpoch.Valid
}

// Started returns the creation time.
func (r *PromptRecord) Started() time.Time {
	return time.UnixMilli(r.CreatedAtEpoch)
}

// Finished returns the completion time and whether the record is closed.
func (r *PromptRecord) Finished() (time.Time, bool) {
	if !r.CompletedAtEpoch.Valid {
		return time.Time{}, false
	}
	return time.UnixMilli(r.CompletedAtEpoch.Int64), true
}

// HasWaited reports whether a waiting-for-input signal was recorded.
func (r *PromptRecord) HasWaited() bool {
	return r.LastWaitAtEpoch.Valid
}

// PromptRecordJSON is a JSON-friendly representation of PromptRecord.
// Nullable columns are flattened to plain strings.
type PromptRecordJSON struct {
	SessionID       string `json:"session_id" yaml:"session_id"`
	PromptText      string `json:"prompt_text" yaml:"prompt_text"`
	WorkingDirLabel string `json:"working_dir_label" yaml:"working_dir_label"`
	CreatedAt       string `json:"created_at" yaml:"created_at"`
	CompletedAt     string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	LastWaitAt      string `json:"last_wait_at,omitempty" yaml:"last_wait_at,omitempty"`
	Duration        string `json:"duration,omitempty" yaml:"duration,omitempty"`
	ID              int64  `json:"id" yaml:"id"`
	Seq             int    `json:"seq" yaml:"seq"`
	Open            bool   `json:"open" yaml:"open"`
}

// ToJSON converts the record for API and report output. The formatted
// duration is supplied by the caller.
func (r *PromptRecord) ToJSON(duration string) *PromptRecordJSON {
	return &PromptRecordJSON{
		ID:              r.ID,
		SessionID:       r.SessionID,
		Seq:             r.Seq,
		PromptText:      r.PromptText,
		WorkingDirLabel: r.WorkingDirLabel,
		CreatedAt:       r.CreatedAt,
		CompletedAt:     r.CompletedAt.String,
		LastWaitAt:      r.LastWaitAt.String,
		Duration:        duration,
		Open:            r.IsOpen(),
	}
}
