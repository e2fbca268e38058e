// Package report summarizes the prompt store for the report and watch
// commands.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/prompt-tracker/internal/tracker"
	"github.com/thebtf/prompt-tracker/pkg/models"
)

// Format selects the report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// PreviewRunes is how much prompt text the text report shows.
const PreviewRunes = 30

// DefaultRecent is the number of recent records included by default.
const DefaultRecent = 5

// ParseFormat validates a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want text, json or yaml)", s)
	}
}

// Source is the read side of the prompt store.
type Source interface {
	Stats(ctx context.Context) (*models.TrackerStats, error)
	SessionSummaries(ctx context.Context, limit int) ([]*models.SessionStats, error)
	RecentPrompts(ctx context.Context, limit int) ([]*models.PromptRecord, error)
}

// Report is a point-in-time summary of the store.
type Report struct {
	GeneratedAt string                     `json:"generated_at" yaml:"generated_at"`
	Stats       *models.TrackerStats       `json:"stats" yaml:"stats"`
	Sessions    []*models.SessionStats     `json:"sessions" yaml:"sessions"`
	Recent      []*models.PromptRecordJSON `json:"recent" yaml:"recent"`
}

// Options bound the report size. Zero values mean all sessions and
// DefaultRecent records.
type Options struct {
	Sessions int
	Recent   int
}

// Build queries src and assembles a report.
func Build(ctx context.Context, src Source, opts Options, now time.Time) (*Report, error) {
	if opts.Recent <= 0 {
		opts.Recent = DefaultRecent
	}

	stats, err := src.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	sessions, err := src.SessionSummaries(ctx, opts.Sessions)
	if err != nil {
		return nil, fmt.Errorf("session summaries: %w", err)
	}
	recent, err := src.RecentPrompts(ctx, opts.Recent)
	if err != nil {
		return nil, fmt.Errorf("recent prompts: %w", err)
	}

	r := &Report{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Stats:       stats,
		Sessions:    sessions,
		Recent:      ToJSON(recent),
	}
	return r, nil
}

// ToJSON converts records for output, with durations for completed ones.
func ToJSON(recs []*models.PromptRecord) []*models.PromptRecordJSON {
	out := make([]*models.PromptRecordJSON, 0, len(recs))
	for _, rec := range recs {
		duration := ""
		if end, ok := rec.Finished(); ok {
			duration = tracker.FormatSpan(rec.Started(), end)
		}
		out = append(out, rec.ToJSON(duration))
	}
	return out
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, r)
	}
}

func renderText(w io.Writer, r *Report) error {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintf(&b, "%s\nPrompt Tracker Report (%s)\n%s\n", rule, r.GeneratedAt, rule)
	fmt.Fprintf(&b, "Total records: %d\n", r.Stats.TotalRecords)

	b.WriteString("\nRecords by session:\n")
	if len(r.Sessions) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range r.Sessions {
		fmt.Fprintf(&b, "  %s (%s): %d records, max seq: %d, open: %d\n",
			s.SessionID, s.WorkingDirLabel, s.Records, s.MaxSeq, s.Open)
	}

	b.WriteString("\nTask status:\n")
	fmt.Fprintf(&b, "  Completed: %d\n", r.Stats.Completed)
	fmt.Fprintf(&b, "  Incomplete: %d\n", r.Stats.Open)
	fmt.Fprintf(&b, "  Waited for input: %d\n", r.Stats.Waited)

	b.WriteString("\nRecent records:\n")
	if len(r.Recent) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, rec := range r.Recent {
		b.WriteString("  " + RecordLine(rec) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RecordLine renders one record as
// "<status> <session>[<seq>] <label>: <preview> [duration] [⌛]".
func RecordLine(rec *models.PromptRecordJSON) string {
	status := "✓"
	if rec.Open {
		status = "⏳"
	}

	line := fmt.Sprintf("%s %s[%d] %s: %s", status, rec.SessionID, rec.Seq, rec.WorkingDirLabel, Preview(rec.PromptText, PreviewRunes))
	if rec.Duration != "" {
		line += " (" + rec.Duration + ")"
	}
	if rec.LastWaitAt != "" {
		line += " ⌛"
	}
	return line
}

// Preview truncates s to n runes, appending "..." when it was cut.
// Newlines are flattened so each record stays on one line.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
