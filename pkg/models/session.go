// Package models contains domain models for prompt-tracker.
package models

// SessionStats aggregates the records of one session.
type SessionStats struct {
	SessionID       string `db:"session_id" json:"session_id" yaml:"session_id"`
	WorkingDirLabel string `db:"working_dir_label" json:"working_dir_label" yaml:"working_dir_label"`
	Records         int64  `db:"records" json:"records" yaml:"records"`
	MaxSeq          int64  `db:"max_seq" json:"max_seq" yaml:"max_seq"`
	Open            int64  `db:"open" json:"open" yaml:"open"`
	LastActiveEpoch int64  `db:"last_active_epoch" json:"last_active_epoch" yaml:"last_active_epoch"`
}

// TrackerStats holds store-wide counters.
type TrackerStats struct {
	TotalRecords int64 `json:"total_records" yaml:"total_records"`
	Sessions     int64 `json:"sessions" yaml:"sessions"`
	Completed    int64 `json:"completed" yaml:"completed"`
	Open         int64 `json:"open" yaml:"open"`
	Waited       int64 `json:"waited" yaml:"waited"`
}
