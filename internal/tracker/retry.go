package tracker

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// transientMarkers are driver messages for conditions another attempt can clear.
var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"unique constraint failed",
	"duplicate key value",
	"could not serialize access",
}

// isTransient reports whether a store error is worth retrying. Duplicate
// keys come from losing the (session_id, seq) race to another process.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry runs fn with a per-attempt timeout, retrying transient errors
// up to c.retries extra times with linear backoff.
func (c *Correlator) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.storeTimeout)
		err = fn(attemptCtx)
		cancel()

		if err == nil || !isTransient(err) {
			return err
		}
		log.Debug().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("Transient store error, retrying")
	}
	return err
}
