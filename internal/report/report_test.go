package report

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thebtf/prompt-tracker/pkg/models"
)

type fakeSource struct {
	stats    *models.TrackerStats
	sessions []*models.SessionStats
	recent   []*models.PromptRecord
	err      error

	gotSessionLimit int
	gotRecentLimit  int
}

func (f *fakeSource) Stats(context.Context) (*models.TrackerStats, error) {
	return f.stats, f.err
}

func (f *fakeSource) SessionSummaries(_ context.Context, limit int) ([]*models.SessionStats, error) {
	f.gotSessionLimit = limit
	return f.sessions, nil
}

func (f *fakeSource) RecentPrompts(_ context.Context, limit int) ([]*models.PromptRecord, error) {
	f.gotRecentLimit = limit
	return f.recent, nil
}

var generated = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleSource() *fakeSource {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return &fakeSource{
		stats: &models.TrackerStats{TotalRecords: 3, Sessions: 2, Completed: 1, Open: 2, Waited: 1},
		sessions: []*models.SessionStats{
			{SessionID: "s2", WorkingDirLabel: "api", Records: 1, MaxSeq: 1, Open: 1},
			{SessionID: "s1", WorkingDirLabel: "my-app", Records: 2, MaxSeq: 2, Open: 1},
		},
		recent: []*models.PromptRecord{
			{
				SessionID: "s2", Seq: 1, WorkingDirLabel: "api",
				PromptText:      "add pagination to the listing endpoint please",
				CreatedAtEpoch:  start.UnixMilli(),
				LastWaitAt:      sql.NullString{String: "2024-03-01T10:01:00Z", Valid: true},
				LastWaitAtEpoch: sql.NullInt64{Int64: start.Add(time.Minute).UnixMilli(), Valid: true},
			},
			{
				SessionID: "s1", Seq: 2, WorkingDirLabel: "my-app",
				PromptText:       "fix tests",
				CreatedAtEpoch:   start.UnixMilli(),
				CompletedAt:      sql.NullString{String: "2024-03-01T10:02:30Z", Valid: true},
				CompletedAtEpoch: sql.NullInt64{Int64: start.Add(150 * time.Second).UnixMilli(), Valid: true},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	src := sampleSource()
	r, err := Build(context.Background(), src, Options{}, generated)
	require.NoError(t, err)

	assert.Equal(t, DefaultRecent, src.gotRecentLimit)
	assert.Equal(t, 0, src.gotSessionLimit)
	assert.Equal(t, "2024-03-01T12:00:00Z", r.GeneratedAt)
	require.Len(t, r.Recent, 2)
	assert.True(t, r.Recent[0].Open)
	assert.Empty(t, r.Recent[0].Duration)
	assert.Equal(t, "2m30s", r.Recent[1].Duration)

	_, err = Build(context.Background(), &fakeSource{err: errors.New("locked")}, Options{}, generated)
	assert.ErrorContains(t, err, "stats: locked")
}

func TestRenderText(t *testing.T) {
	r, err := Build(context.Background(), sampleSource(), Options{Recent: 10}, generated)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	out := buf.String()

	assert.Contains(t, out, "Total records: 3")
	assert.Contains(t, out, "  s1 (my-app): 2 records, max seq: 2, open: 1")
	assert.Contains(t, out, "  Completed: 1\n  Incomplete: 2")
	assert.Contains(t, out, "  ⏳ s2[1] api: add pagination to the listing ... ⌛")
	assert.Contains(t, out, "  ✓ s1[2] my-app: fix tests (2m30s)")
}

func TestRenderTextEmpty(t *testing.T) {
	r, err := Build(context.Background(), &fakeSource{stats: &models.TrackerStats{}}, Options{}, generated)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, FormatText))
	assert.Equal(t, 2, strings.Count(buf.String(), "(none)"))
}

func TestRenderStructured(t *testing.T) {
	r, err := Build(context.Background(), sampleSource(), Options{}, generated)
	require.NoError(t, err)

	var jsonBuf bytes.Buffer
	require.NoError(t, Render(&jsonBuf, r, FormatJSON))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	assert.Equal(t, float64(3), fromJSON["stats"].(map[string]any)["total_records"])
	assert.Len(t, fromJSON["recent"], 2)

	var yamlBuf bytes.Buffer
	require.NoError(t, Render(&yamlBuf, r, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	assert.Equal(t, 2, fromYAML["stats"].(map[string]any)["sessions"])
	assert.Contains(t, yamlBuf.String(), "prompt_text: fix tests")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 30))
	assert.Equal(t, "line one line two", Preview("line one\nline   two", 30))
	assert.Equal(t, "héllo...", Preview("héllo wörld", 5))
	assert.Equal(t, strings.Repeat("x", 30), Preview(strings.Repeat("x", 30), 30))
}
