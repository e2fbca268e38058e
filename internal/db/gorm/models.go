// Package gorm provides GORM-based database operations for prompt-tracker.
package gorm

import (
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/prompt-tracker/pkg/models"
)

// PromptRecord is the persisted form of models.PromptRecord.
// The (session_id, seq) unique index rejects a second record with the same
// seq, whichever process inserts it.
type PromptRecord struct {
	ID               int64  `gorm:"primaryKey;autoIncrement"`
	SessionID        string `gorm:"not null;index:idx_prompt_records_open,priority:1;uniqueIndex:idx_prompt_records_session_seq,priority:1"`
	Seq              int    `gorm:"not null;uniqueIndex:idx_prompt_records_session_seq,priority:2"`
	PromptText       string `gorm:"type:text;not null;default:''"`
	WorkingDirLabel  string `gorm:"not null;default:'unknown'"`
	WorkingDir       string `gorm:"type:text"`
	CreatedAt        string `gorm:"not null"`
	CreatedAtEpoch   int64  `gorm:"index:idx_prompt_records_created,sort:desc;not null"`
	CompletedAt      sql.NullString
	CompletedAtEpoch sql.NullInt64 `gorm:"index:idx_prompt_records_open,priority:2"`
	LastWaitAt       sql.NullString
	LastWaitAtEpoch  sql.NullInt64
}

func (PromptRecord) TableName() string { return "prompt_records" }

// BeforeCreate hook to ensure timestamps are set.
func (p *PromptRecord) BeforeCreate(tx *gorm.DB) error {
	if p.CreatedAtEpoch == 0 {
		p.CreatedAtEpoch = time.Now().UnixMilli()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = time.UnixMilli(p.CreatedAtEpoch).UTC().Format(time.RFC3339)
	}
	if p.WorkingDirLabel == "" {
		p.WorkingDirLabel = models.UnknownLabel
	}
	return nil
}

func toModelPrompt(p *PromptRecord) *models.PromptRecord {
	return &models.PromptRecord{
		ID:               p.ID,
		SessionID:        p.SessionID,
		Seq:              p.Seq,
		PromptText:       p.PromptText,
		WorkingDirLabel:  p.WorkingDirLabel,
		WorkingDir:       p.WorkingDir,
		CreatedAt:        p.CreatedAt,
		CreatedAtEpoch:   p.CreatedAtEpoch,
		CompletedAt:      p.CompletedAt,
		CompletedAtEpoch: p.CompletedAtEpoch,
		LastWaitAt:       p.LastWaitAt,
		LastWaitAtEpoch:  p.LastWaitAtEpoch,
	}
}

func toModelPrompts(rows []PromptRecord) []*models.PromptRecord {
	out := make([]*models.PromptRecord, 0, len(rows))
	for i := range rows {
		out = append(out, toModelPrompt(&rows[i]))
	}
	return out
}
