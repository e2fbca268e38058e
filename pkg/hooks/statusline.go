package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/prompt-tracker/internal/tracker"
	"github.com/thebtf/prompt-tracker/pkg/models"
)

// StatuslineInput is the subset of the statusline payload we use.
type StatuslineInput struct {
	SessionID string `json:"session_id"`
	CWD       string `json:"cwd"`
	Workspace struct {
		CurrentDir string `json:"current_dir"`
	} `json:"workspace"`
}

// Dir returns the session's working directory.
func (in *StatuslineInput) Dir() string {
	if in.Workspace.CurrentDir != "" {
		return in.Workspace.CurrentDir
	}
	return in.CWD
}

// LatestLookup finds the most recent record of a session.
type LatestLookup interface {
	LatestPrompt(ctx context.Context, sessionID string) (*models.PromptRecord, error)
}

// Statusline renders one line for the session: the running prompt with its
// elapsed time, the last completed one with its duration, or idle. Lookup
// failures degrade to the label alone.
func Statusline(ctx context.Context, lookup LatestLookup, in *StatuslineInput, now time.Time) string {
	if in == nil {
		return models.UnknownLabel
	}
	label := tracker.WorkingDirLabel(in.Dir())
	if in.SessionID == "" || lookup == nil {
		return label
	}

	rec, err := lookup.LatestPrompt(ctx, in.SessionID)
	if err != nil {
		log.Debug().Err(err).Str("session", in.SessionID).Msg("Statusline lookup failed")
		return label
	}
	if rec == nil {
		return label + " idle"
	}

	if end, ok := rec.Finished(); ok {
		return fmt.Sprintf("%s #%d ✓ %s", label, rec.Seq, tracker.FormatSpan(rec.Started(), end))
	}
	return fmt.Sprintf("%s #%d ⏳ %s", label, rec.Seq, tracker.FormatSpan(rec.Started(), now))
}
