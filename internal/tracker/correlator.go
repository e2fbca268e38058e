// Package tracker correlates Claude Code hook events into prompt records.
//
// Each session has at most one open record under the normal protocol: a
// submit opens a record with the session's next seq, wait signals stamp it,
// and a stop closes it and reports the elapsed time. Submits that are never
// followed by a stop leave their records open; this is accepted, and a
// later stop closes only the most recently created one.
package tracker

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thebtf/prompt-tracker/internal/notify"
	"github.com/thebtf/prompt-tracker/pkg/models"
)

// WaitingPhrase marks a notification message as a waiting-for-input signal.
const WaitingPhrase = "waiting for your input"

// WaitingSubtitle is the subtitle of waiting-for-input notifications.
const WaitingSubtitle = "Waiting for input"

// CompletedMessage is the body of task completion notifications.
const CompletedMessage = "Task completed"

// Defaults for Correlator options.
const (
	DefaultStoreTimeout  = 5 * time.Second
	DefaultNotifyTimeout = 3 * time.Second
	DefaultRetries       = 3
	DefaultRetryBackoff  = 50 * time.Millisecond
)

// PromptStore persists prompt records.
type PromptStore interface {
	// InsertPrompt assigns the session's next seq and stores rec atomically.
	InsertPrompt(ctx context.Context, rec *models.PromptRecord) error
	// CompleteOpenPrompt closes the latest open record; nil if none.
	CompleteOpenPrompt(ctx context.Context, sessionID string, at time.Time) (*models.PromptRecord, error)
	// MarkOpenPromptWaiting stamps last_wait_at on the latest open record; nil if none.
	MarkOpenPromptWaiting(ctx context.Context, sessionID string, at time.Time) (*models.PromptRecord, error)
}

// Action describes what an operation did.
type Action string

const (
	ActionNoop      Action = "noop"
	ActionRecorded  Action = "recorded"
	ActionCompleted Action = "completed"
	ActionWaiting   Action = "waiting"
)

// Result reports the outcome of a correlator operation.
type Result struct {
	Action Action
	// Record is the affected record, nil when no record was touched.
	Record *models.PromptRecord
	// Duration is the formatted elapsed time of a completed record.
	Duration string
	// Notified is true when a notification was delivered.
	Notified bool
}

// Correlator implements the submit, wait and stop protocols.
type Correlator struct {
	store         PromptStore
	notifier      notify.Notifier
	now           func() time.Time
	cleanPrompt   func(string) string
	storeTimeout  time.Duration
	notifyTimeout time.Duration
	retries       int
	backoff       time.Duration
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Correlator) { c.now = now }
}

// WithStoreTimeout bounds each store attempt.
func WithStoreTimeout(d time.Duration) Option {
	return func(c *Correlator) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithNotifyTimeout bounds each notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(c *Correlator) {
		if d > 0 {
			c.notifyTimeout = d
		}
	}
}

// WithRetries sets how many times transient store errors are retried.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Correlator) {
		if n >= 0 {
			c.retries = n
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithPromptCleaner transforms prompt text before it is stored.
func WithPromptCleaner(fn func(string) string) Option {
	return func(c *Correlator) { c.cleanPrompt = fn }
}

// New creates a Correlator. A nil notifier discards notifications.
func New(store PromptStore, notifier notify.Notifier, opts ...Option) *Correlator {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	c := &Correlator{
		store:         store,
		notifier:      notifier,
		now:           time.Now,
		storeTimeout:  DefaultStoreTimeout,
		notifyTimeout: DefaultNotifyTimeout,
		retries:       DefaultRetries,
		backoff:       DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSubmit opens a new record for the session. No notification is sent.
func (c *Correlator) OnSubmit(ctx context.Context, sessionID, promptText, workingDir string) (Result, error) {
	if sessionID == "" {
		return Result{Action: ActionNoop}, inputError("submit", ErrMissingSessionID)
	}

	if c.cleanPrompt != nil {
		promptText = c.cleanPrompt(promptText)
	}

	now := c.now()
	template := models.PromptRecord{
		SessionID:       sessionID,
		PromptText:      promptText,
		WorkingDirLabel: WorkingDirLabel(workingDir),
		WorkingDir:      workingDir,
		CreatedAt:       now.UTC().Format(time.RFC3339),
		CreatedAtEpoch:  now.UnixMilli(),
	}

	var rec models.PromptRecord
	err := c.withRetry(ctx, "submit", func(ctx context.Context) error {
		rec = template
		return c.store.InsertPrompt(ctx, &rec)
	})
	if err != nil {
		return Result{Action: ActionNoop}, storeError("submit", err)
	}

	log.Info().
		Str("session", sessionID).
		Int("seq", rec.Seq).
		Str("dir", rec.WorkingDirLabel).
		Msg("Recorded prompt")

	return Result{Action: ActionRecorded, Record: &rec}, nil
}

// OnStop closes the session's open record and notifies with the elapsed
// time. Without an open record it is a no-op.
func (c *Correlator) OnStop(ctx context.Context, sessionID string) (Result, error) {
	if sessionID == "" {
		return Result{Action: ActionNoop}, inputError("stop", ErrMissingSessionID)
	}

	now := c.now()
	var rec *models.PromptRecord
	err := c.withRetry(ctx, "stop", func(ctx context.Context) error {
		var err error
		rec, err = c.store.CompleteOpenPrompt(ctx, sessionID, now)
		return err
	})
	if err != nil {
		return Result{Action: ActionNoop}, storeError("stop", err)
	}
	if rec == nil {
		log.Debug().Str("session", sessionID).Msg("Stop without open prompt")
		return Result{Action: ActionNoop}, nil
	}

	duration := FormatTimestamps(rec.CreatedAt, rec.CompletedAt.String)

	title := rec.WorkingDirLabel
	if title == "" {
		title = notify.DefaultTitle
	}
	notified := c.notify(ctx, notify.Notification{
		Title:     title,
		Subtitle:  duration,
		Message:   CompletedMessage,
		Event:     "Stop",
		SessionID: sessionID,
	})

	log.Info().
		Str("session", sessionID).
		Int("seq", rec.Seq).
		Str("duration", duration).
		Msg("Task completed")

	return Result{Action: ActionCompleted, Record: rec, Duration: duration, Notified: notified}, nil
}

// OnWaitingSignal handles a Notification event. Messages that do not
// contain WaitingPhrase are ignored. Otherwise the open record (if any) gets
// last_wait_at and a notification is sent regardless of the store outcome.
func (c *Correlator) OnWaitingSignal(ctx context.Context, sessionID, message, workingDir string) (Result, error) {
	if !IsWaitingMessage(message) {
		return Result{Action: ActionNoop}, nil
	}

	var (
		rec      *models.PromptRecord
		storeErr error
	)
	if sessionID != "" {
		now := c.now()
		err := c.withRetry(ctx, "wait", func(ctx context.Context) error {
			var err error
			rec, err = c.store.MarkOpenPromptWaiting(ctx, sessionID, now)
			return err
		})
		if err != nil {
			storeErr = storeError("wait", err)
		}
	}

	title := notify.DefaultTitle
	if workingDir != "" {
		title = WorkingDirLabel(workingDir)
	}
	notified := c.notify(ctx, notify.Notification{
		Title:     title,
		Subtitle:  WaitingSubtitle,
		Message:   message,
		Event:     "Notification",
		SessionID: sessionID,
	})

	log.Info().
		Str("session", sessionID).
		Bool("record_updated", rec != nil).
		Msg("Waiting for input")

	return Result{Action: ActionWaiting, Record: rec, Notified: notified}, storeErr
}

// notify delivers n within the notify timeout. Failures are logged only.
func (c *Correlator) notify(ctx context.Context, n notify.Notification) bool {
	nctx, cancel := context.WithTimeout(ctx, c.notifyTimeout)
	defer cancel()

	if err := c.notifier.Notify(nctx, n); err != nil {
		log.Warn().Err(err).Str("title", n.Title).Msg("Notification not delivered")
		return false
	}
	log.Debug().Str("title", n.Title).Str("subtitle", n.Subtitle).Msg("Notification sent")
	return true
}

// IsWaitingMessage reports whether message is a waiting-for-input signal.
func IsWaitingMessage(message string) bool {
	return strings.Contains(strings.ToLower(message), WaitingPhrase)
}

// WorkingDirLabel returns the last path component of dir, or
// models.UnknownLabel when dir is empty or has no usable component.
func WorkingDirLabel(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return models.UnknownLabel
	}
	base := filepath.Base(filepath.Clean(dir))
	if base == "." || base == string(filepath.Separator) {
		return models.UnknownLabel
	}
	return base
}
