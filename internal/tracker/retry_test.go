package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, isTransient(nil))
	assert.True(t, isTransient(gorm.ErrDuplicatedKey))
	assert.True(t, isTransient(fmt.Errorf("create prompt record: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, isTransient(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.True(t, isTransient(errors.New("UNIQUE constraint failed: prompt_records.session_id, prompt_records.seq")))
	assert.True(t, isTransient(errors.New(`ERROR: duplicate key value violates unique constraint "idx_prompt_records_session_seq"`)))
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(errors.New("no such table: prompt_records")))
}

func TestWithRetry(t *testing.T) {
	c := New(nil, nil, WithRetries(2, time.Millisecond))

	t.Run("transient then success", func(t *testing.T) {
		calls := 0
		err := c.withRetry(context.Background(), "test", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("database is locked")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("retries exhausted", func(t *testing.T) {
		calls := 0
		err := c.withRetry(context.Background(), "test", func(ctx context.Context) error {
			calls++
			return gorm.ErrDuplicatedKey
		})
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error not retried", func(t *testing.T) {
		calls := 0
		err := c.withRetry(context.Background(), "test", func(ctx context.Context) error {
			calls++
			return errors.New("disk I/O error")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("attempt has deadline", func(t *testing.T) {
		err := c.withRetry(context.Background(), "test", func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			assert.True(t, ok)
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := c.withRetry(ctx, "test", func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("database is locked")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestErrorKinds(t *testing.T) {
	err := inputError("submit", ErrMissingSessionID)
	assert.True(t, IsInput(err))
	assert.False(t, IsStore(err))
	assert.ErrorIs(t, err, ErrMissingSessionID)
	assert.Equal(t, "submit: input error: missing session_id", err.Error())

	wrapped := fmt.Errorf("hook: %w", storeError("stop", errors.New("boom")))
	assert.True(t, IsStore(wrapped))
	assert.Equal(t, KindStore, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
