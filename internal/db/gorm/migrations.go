// Package gorm provides GORM-based database operations for prompt-tracker.
package gorm

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/thebtf/prompt-tracker/internal/tracker"
	"github.com/thebtf/prompt-tracker/pkg/models"
)

// legacyTable is the table written by the original Python hook, which kept
// its seq column filled by an AFTER INSERT trigger.
const legacyTable = "prompt"

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB, driver string) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: prompt records with (session_id, seq) unique index
		{
			ID: "001_prompt_records",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&PromptRecord{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("prompt_records")
			},
		},

		// Migration 002: copy rows from the legacy trigger-based table
		{
			ID: "002_import_legacy_prompt_table",
			Migrate: func(tx *gorm.DB) error {
				if driver != DriverSQLite || !tx.Migrator().HasTable(legacyTable) {
					return nil
				}
				n, err := importLegacyPrompts(tx)
				if err != nil {
					return err
				}
				log.Info().Int("records", n).Msg("Imported legacy prompt records")
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return nil
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}

	return nil
}

type legacyPrompt struct {
	ID             int64
	SessionID      sql.NullString
	CreatedAt      sql.NullString
	Prompt         sql.NullString
	Dirname        sql.NullString
	Seq            sql.NullInt64
	StopedAt       sql.NullString
	LastWaitUserAt sql.NullString
}

// importLegacyPrompts converts legacy rows. Timestamps there come from
// SQLite CURRENT_TIMESTAMP, which is UTC. Rows without a session id are
// skipped; a missing seq continues from the previous row of the session.
func importLegacyPrompts(tx *gorm.DB) (int, error) {
	var legacy []legacyPrompt
	err := tx.Raw(`SELECT id, session_id,
			CAST(created_at AS TEXT) AS created_at,
			prompt, dirname, seq,
			CAST(stoped_at AS TEXT) AS stoped_at,
			CAST(lastWaitUserAt AS TEXT) AS last_wait_user_at
		FROM ` + legacyTable + `
		ORDER BY session_id, id`).Scan(&legacy).Error
	if err != nil {
		return 0, fmt.Errorf("read legacy prompts: %w", err)
	}

	rows := make([]PromptRecord, 0, len(legacy))
	lastSeq := make(map[string]int)
	for _, l := range legacy {
		if !l.SessionID.Valid || l.SessionID.String == "" {
			continue
		}
		sid := l.SessionID.String

		seq := lastSeq[sid] + 1
		if l.Seq.Valid && int(l.Seq.Int64) > lastSeq[sid] {
			seq = int(l.Seq.Int64)
		}
		lastSeq[sid] = seq

		created, err := tracker.ParseTimestamp(l.CreatedAt.String)
		if err != nil {
			log.Warn().Err(err).Int64("legacy_id", l.ID).Msg("Unparsable legacy created_at, using import time")
			created = time.Now()
		}

		label := l.Dirname.String
		if label == "" {
			label = models.UnknownLabel
		}

		row := PromptRecord{
			SessionID:       sid,
			Seq:             seq,
			PromptText:      l.Prompt.String,
			WorkingDirLabel: label,
			CreatedAt:       created.UTC().Format(time.RFC3339),
			CreatedAtEpoch:  created.UnixMilli(),
		}
		if ts, err := tracker.ParseTimestamp(l.StopedAt.String); l.StopedAt.Valid && err == nil {
			row.CompletedAt, row.CompletedAtEpoch = nullTime(ts)
		}
		if ts, err := tracker.ParseTimestamp(l.LastWaitUserAt.String); l.LastWaitUserAt.Valid && err == nil {
			row.LastWaitAt, row.LastWaitAtEpoch = nullTime(ts)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	// INSERT OR IGNORE on (session_id, seq)
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, 200)
	if res.Error != nil {
		return 0, fmt.Errorf("insert legacy prompts: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
