// Package gorm provides GORM-based database operations for prompt-tracker.
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/prompt-tracker/pkg/models"
)

// PromptStore provides prompt record operations using GORM.
type PromptStore struct {
	db *gorm.DB
}

// NewPromptStore creates a new prompt store.
func NewPromptStore(store *Store) *PromptStore {
	return &PromptStore{db: store.DB}
}

// InsertPrompt stores rec as a new open record with the session's next seq.
// The seq is computed inside the INSERT itself, so on SQLite the statement
// takes the write lock before reading MAX(seq). Elsewhere a lost race
// surfaces as gorm.ErrDuplicatedKey on the (session_id, seq) index.
// rec.ID and rec.Seq are filled in.
func (s *PromptStore) InsertPrompt(ctx context.Context, rec *models.PromptRecord) error {
	label := rec.WorkingDirLabel
	if label == "" {
		label = models.UnknownLabel
	}
	createdEpoch := rec.CreatedAtEpoch
	if createdEpoch == 0 {
		createdEpoch = time.Now().UnixMilli()
	}
	createdAt := rec.CreatedAt
	if createdAt == "" {
		createdAt = time.UnixMilli(createdEpoch).UTC().Format(time.RFC3339)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec(`INSERT INTO prompt_records
				(session_id, seq, prompt_text, working_dir_label, working_dir, created_at, created_at_epoch)
			SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
			FROM prompt_records WHERE session_id = ?`,
			rec.SessionID, rec.PromptText, label, rec.WorkingDir, createdAt, createdEpoch, rec.SessionID,
		).Error
		if err != nil {
			return fmt.Errorf("create prompt record: %w", err)
		}

		var row PromptRecord
		if err := tx.Where("session_id = ?", rec.SessionID).
			Order("seq DESC").
			Take(&row).Error; err != nil {
			return fmt.Errorf("read back prompt record: %w", err)
		}

		*rec = *toModelPrompt(&row)
		return nil
	})
}

// CompleteOpenPrompt closes the most recently created open record of the
// session. It returns nil when the session has no open record, including
// when another process closed it between the lookup and the update.
func (s *PromptStore) CompleteOpenPrompt(ctx context.Context, sessionID string, at time.Time) (*models.PromptRecord, error) {
	var out *models.PromptRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := latestOpen(tx, sessionID)
		if err != nil || row == nil {
			return err
		}

		completedAt, completedEpoch := nullTime(at)
		res := tx.Model(&PromptRecord{}).
			Where("id = ? AND completed_at_epoch IS NULL", row.ID).
			Updates(map[string]any{
				"completed_at":       completedAt,
				"completed_at_epoch": completedEpoch,
			})
		if res.Error != nil {
			return fmt.Errorf("complete prompt record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		row.CompletedAt = completedAt
		row.CompletedAtEpoch = completedEpoch
		out = toModelPrompt(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkOpenPromptWaiting sets last_wait_at on the session's most recently
// created open record. Returns nil when there is no open record.
func (s *PromptStore) MarkOpenPromptWaiting(ctx context.Context, sessionID string, at time.Time) (*models.PromptRecord, error) {
	var out *models.PromptRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := latestOpen(tx, sessionID)
		if err != nil || row == nil {
			return err
		}

		waitAt, waitEpoch := nullTime(at)
		res := tx.Model(&PromptRecord{}).
			Where("id = ? AND completed_at_epoch IS NULL", row.ID).
			Updates(map[string]any{
				"last_wait_at":       waitAt,
				"last_wait_at_epoch": waitEpoch,
			})
		if res.Error != nil {
			return fmt.Errorf("mark prompt waiting: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		row.LastWaitAt = waitAt
		row.LastWaitAtEpoch = waitEpoch
		out = toModelPrompt(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// latestOpen selects the open record with the latest created_at, id breaking ties.
func latestOpen(tx *gorm.DB, sessionID string) (*PromptRecord, error) {
	var row PromptRecord
	err := tx.Where("session_id = ? AND completed_at_epoch IS NULL", sessionID).
		Order("created_at_epoch DESC").
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open prompt record: %w", err)
	}
	return &row, nil
}

// GetPromptByID retrieves a record by its ID. Returns nil if not found.
func (s *PromptStore) GetPromptByID(ctx context.Context, id int64) (*models.PromptRecord, error) {
	var row PromptRecord
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelPrompt(&row), nil
}

// LatestPrompt returns the session's most recently created record, open or not.
func (s *PromptStore) LatestPrompt(ctx context.Context, sessionID string) (*models.PromptRecord, error) {
	var row PromptRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at_epoch DESC").
		Order("id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toModelPrompt(&row), nil
}

// SessionPrompts returns all records of a session in seq order.
func (s *PromptStore) SessionPrompts(ctx context.Context, sessionID string) ([]*models.PromptRecord, error) {
	var rows []PromptRecord
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelPrompts(rows), nil
}

// RecentPrompts returns the most recently created records across all sessions.
func (s *PromptStore) RecentPrompts(ctx context.Context, limit int) ([]*models.PromptRecord, error) {
	var rows []PromptRecord
	err := withLimit(s.db.WithContext(ctx), limit).
		Order("created_at_epoch DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toModelPrompts(rows), nil
}

type sessionStatsRow struct {
	SessionID       string
	WorkingDirLabel string
	Records         int64
	MaxSeq          int64
	OpenCount       int64
	LastActiveEpoch int64
}

// SessionSummaries aggregates records per session, most recently active first.
func (s *PromptStore) SessionSummaries(ctx context.Context, limit int) ([]*models.SessionStats, error) {
	var rows []sessionStatsRow
	err := withLimit(s.db.WithContext(ctx), limit).
		Model(&PromptRecord{}).
		Select(`session_id,
			MAX(working_dir_label) AS working_dir_label,
			COUNT(*) AS records,
			MAX(seq) AS max_seq,
			COALESCE(SUM(CASE WHEN completed_at_epoch IS NULL THEN 1 ELSE 0 END), 0) AS open_count,
			MAX(created_at_epoch) AS last_active_epoch`).
		Group("session_id").
		Order("last_active_epoch DESC").
		Order("session_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*models.SessionStats, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.SessionStats{
			SessionID:       r.SessionID,
			WorkingDirLabel: r.WorkingDirLabel,
			Records:         r.Records,
			MaxSeq:          r.MaxSeq,
			Open:            r.OpenCount,
			LastActiveEpoch: r.LastActiveEpoch,
		})
	}
	return out, nil
}

type trackerStatsRow struct {
	TotalRecords int64
	Sessions     int64
	Completed    int64
	OpenCount    int64
	Waited       int64
}

// Stats returns store-wide counters.
func (s *PromptStore) Stats(ctx context.Context) (*models.TrackerStats, error) {
	var row trackerStatsRow
	err := s.db.WithContext(ctx).
		Model(&PromptRecord{}).
		Select(`COUNT(*) AS total_records,
			COUNT(DISTINCT session_id) AS sessions,
			COUNT(completed_at_epoch) AS completed,
			COALESCE(SUM(CASE WHEN completed_at_epoch IS NULL THEN 1 ELSE 0 END), 0) AS open_count,
			COUNT(last_wait_at_epoch) AS waited`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &models.TrackerStats{
		TotalRecords: row.TotalRecords,
		Sessions:     row.Sessions,
		Completed:    row.Completed,
		Open:         row.OpenCount,
		Waited:       row.Waited,
	}, nil
}

// Prune deletes completed records that finished before cutoff. Open records
// and each session's highest-seq record are kept, so a session's next seq
// never reuses a value.
func (s *PromptStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("completed_at_epoch IS NOT NULL AND completed_at_epoch < ?", cutoff.UnixMilli()).
		Where("seq < (SELECT MAX(p2.seq) FROM prompt_records p2 WHERE p2.session_id = prompt_records.session_id)").
		Delete(&PromptRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune prompt records: %w", res.Error)
	}
	return res.RowsAffected, nil
}
