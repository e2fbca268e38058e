package gorm

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/prompt-tracker/pkg/models"
)

// testPromptStore creates a PromptStore with a temporary database for testing.
func testPromptStore(t *testing.T) (*PromptStore, *Store) {
	t.Helper()
	store := testStore(t, filepath.Join(t.TempDir(), "test.db"))
	return NewPromptStore(store), store
}

func newRecord(sessionID string, createdEpoch int64) *models.PromptRecord {
	return &models.PromptRecord{
		SessionID:       sessionID,
		PromptText:      "prompt for " + sessionID,
		WorkingDirLabel: "my-app",
		WorkingDir:      "/Users/x/projects/my-app",
		CreatedAt:       time.UnixMilli(createdEpoch).UTC().Format(time.RFC3339),
		CreatedAtEpoch:  createdEpoch,
	}
}

func TestPromptStore_InsertAssignsSequence(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		rec := newRecord("s1", int64(i*1000))
		require.NoError(t, ps.InsertPrompt(ctx, rec))
		assert.Equal(t, i, rec.Seq)
		assert.NotZero(t, rec.ID)
		assert.True(t, rec.IsOpen())
	}

	// Sequences are per session
	other := newRecord("s2", 5000)
	require.NoError(t, ps.InsertPrompt(ctx, other))
	assert.Equal(t, 1, other.Seq)

	got, err := ps.GetPromptByID(ctx, other.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "s2", got.SessionID)
	assert.Equal(t, "my-app", got.WorkingDirLabel)

	missing, err := ps.GetPromptByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPromptStore_InsertDefaults(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	rec := &models.PromptRecord{SessionID: "s1", PromptText: "hi"}
	require.NoError(t, ps.InsertPrompt(ctx, rec))

	assert.Equal(t, models.UnknownLabel, rec.WorkingDirLabel)
	assert.NotZero(t, rec.CreatedAtEpoch)
	assert.NotEmpty(t, rec.CreatedAt)
}

func TestPromptStore_ConcurrentInsert(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	const workers, perWorker = 6, 5
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs []int
		errs []error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := newRecord("shared", int64(w*100+i))
				err := ps.InsertPrompt(ctx, rec)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					seqs = append(seqs, rec.Seq)
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Ints(seqs)
	require.Len(t, seqs, workers*perWorker)
	for i, seq := range seqs {
		assert.Equal(t, i+1, seq)
	}
}

func TestPromptStore_CompleteOpenPrompt(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	first := newRecord("s1", 1000)
	second := newRecord("s1", 2000)
	require.NoError(t, ps.InsertPrompt(ctx, first))
	require.NoError(t, ps.InsertPrompt(ctx, second))

	at := time.UnixMilli(62000)
	done, err := ps.CompleteOpenPrompt(ctx, "s1", at)
	require.NoError(t, err)
	require.NotNil(t, done)

	// Latest open record wins
	assert.Equal(t, second.ID, done.ID)
	assert.Equal(t, int64(62000), done.CompletedAtEpoch.Int64)
	assert.Equal(t, at.UTC().Format(time.RFC3339), done.CompletedAt.String)

	// Then the earlier one
	done, err = ps.CompleteOpenPrompt(ctx, "s1", at)
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, first.ID, done.ID)

	// Nothing left
	done, err = ps.CompleteOpenPrompt(ctx, "s1", at)
	require.NoError(t, err)
	assert.Nil(t, done)

	done, err = ps.CompleteOpenPrompt(ctx, "unknown-session", at)
	require.NoError(t, err)
	assert.Nil(t, done)
}

func TestPromptStore_CompleteTieBreaksOnID(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	a := newRecord("s1", 1000)
	b := newRecord("s1", 1000)
	require.NoError(t, ps.InsertPrompt(ctx, a))
	require.NoError(t, ps.InsertPrompt(ctx, b))

	done, err := ps.CompleteOpenPrompt(ctx, "s1", time.UnixMilli(3000))
	require.NoError(t, err)
	require.NotNil(t, done)
	assert.Equal(t, b.ID, done.ID)
}

func TestPromptStore_MarkOpenPromptWaiting(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	// No record yet
	rec, err := ps.MarkOpenPromptWaiting(ctx, "s1", time.UnixMilli(500))
	require.NoError(t, err)
	assert.Nil(t, rec)

	open := newRecord("s1", 1000)
	require.NoError(t, ps.InsertPrompt(ctx, open))

	rec, err = ps.MarkOpenPromptWaiting(ctx, "s1", time.UnixMilli(4000))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.HasWaited())
	assert.True(t, rec.IsOpen())

	// A later signal overwrites the previous one
	rec, err = ps.MarkOpenPromptWaiting(ctx, "s1", time.UnixMilli(9000))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(9000), rec.LastWaitAtEpoch.Int64)

	// Completed records are not touched
	_, err = ps.CompleteOpenPrompt(ctx, "s1", time.UnixMilli(10000))
	require.NoError(t, err)
	rec, err = ps.MarkOpenPromptWaiting(ctx, "s1", time.UnixMilli(11000))
	require.NoError(t, err)
	assert.Nil(t, rec)

	latest, err := ps.LatestPrompt(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(9000), latest.LastWaitAtEpoch.Int64)
}

func TestPromptStore_Queries(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	require.NoError(t, ps.InsertPrompt(ctx, newRecord("s1", 1000)))
	require.NoError(t, ps.InsertPrompt(ctx, newRecord("s1", 2000)))
	require.NoError(t, ps.InsertPrompt(ctx, newRecord("s2", 3000)))
	_, err := ps.CompleteOpenPrompt(ctx, "s1", time.UnixMilli(2500))
	require.NoError(t, err)
	_, err = ps.MarkOpenPromptWaiting(ctx, "s2", time.UnixMilli(3500))
	require.NoError(t, err)

	recent, err := ps.RecentPrompts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s2", recent[0].SessionID)
	assert.Equal(t, 2, recent[1].Seq)

	all, err := ps.RecentPrompts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sessionPrompts, err := ps.SessionPrompts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sessionPrompts, 2)
	assert.Equal(t, 1, sessionPrompts[0].Seq)
	assert.Equal(t, 2, sessionPrompts[1].Seq)

	summaries, err := ps.SessionSummaries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "s2", summaries[0].SessionID)
	assert.Equal(t, int64(1), summaries[0].Open)
	assert.Equal(t, "s1", summaries[1].SessionID)
	assert.Equal(t, int64(2), summaries[1].Records)
	assert.Equal(t, int64(2), summaries[1].MaxSeq)
	assert.Equal(t, int64(1), summaries[1].Open)
	assert.Equal(t, int64(2000), summaries[1].LastActiveEpoch)

	stats, err := ps.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &models.TrackerStats{
		TotalRecords: 3,
		Sessions:     2,
		Completed:    1,
		Open:         2,
		Waited:       1,
	}, stats)
}

func TestPromptStore_StatsEmpty(t *testing.T) {
	ps, _ := testPromptStore(t)

	stats, err := ps.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.TrackerStats{}, stats)
}

func TestPromptStore_Prune(t *testing.T) {
	ps, _ := testPromptStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, ps.InsertPrompt(ctx, newRecord("s1", int64(i*1000))))
	}
	require.NoError(t, ps.InsertPrompt(ctx, newRecord("s2", 1000)))

	// Closes s1 seq 3 and 2, and s2 seq 1; s1 seq 1 stays open
	for _, sid := range []string{"s1", "s1", "s2"} {
		_, err := ps.CompleteOpenPrompt(ctx, sid, time.UnixMilli(5000))
		require.NoError(t, err)
	}
	require.NoError(t, ps.InsertPrompt(ctx, newRecord("s1", 6000)))

	deleted, err := ps.Prune(ctx, time.UnixMilli(10000))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := ps.SessionPrompts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, 1, remaining[0].Seq)
	assert.True(t, remaining[0].IsOpen())
	assert.Equal(t, 4, remaining[1].Seq)

	// s2's only record is its max seq and survives
	s2, err := ps.SessionPrompts(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, s2, 1)

	// Next seq continues after pruning
	next := newRecord("s1", 7000)
	require.NoError(t, ps.InsertPrompt(ctx, next))
	assert.Equal(t, 5, next.Seq)
}
