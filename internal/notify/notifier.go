// Package notify delivers desktop and webhook notifications for prompt-tracker.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// DefaultTitle is used when no working directory label is known.
const DefaultTitle = "Claude Task"

// ErrUnavailable is returned when a notification mechanism is not installed
// or not configured on this machine.
var ErrUnavailable = errors.New("notifier unavailable")

// Notification is a single user-facing notification.
type Notification struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Message  string `json:"message,omitempty"`
	// Event is the hook event that produced the notification.
	Event string `json:"event,omitempty"`
	// SessionID identifies the originating Claude Code session.
	SessionID string `json:"session_id,omitempty"`
}

// Notifier delivers notifications. Implementations must honor ctx deadlines.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, n Notification) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// Nop discards every notification.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, Notification) error { return nil }

// Fallback tries notifiers in order and stops at the first one that is
// available. Non-availability errors stop the chain.
type Fallback []Notifier

// Notify delivers n through the first available notifier.
func (f Fallback) Notify(ctx context.Context, n Notification) error {
	for _, notifier := range f {
		err := notifier.Notify(ctx, n)
		if errors.Is(err, ErrUnavailable) {
			log.Debug().Str("notifier", nameOf(notifier)).Msg("Notifier unavailable, trying next")
			continue
		}
		return err
	}
	return ErrUnavailable
}

// nameOf returns the backend name of n, or its type for anonymous notifiers.
func nameOf(n Notifier) string {
	if named, ok := n.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", n)
}
