package notify

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Multi fans a notification out to every notifier concurrently.
type Multi []Notifier

// Notify delivers n to all notifiers and joins their errors. Unavailable
// backends only count as a failure when none of the others delivered.
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var (
		mu          sync.Mutex
		errs        []error
		delivered   int
		unavailable int
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, notifier := range m {
		notifier := notifier
		g.Go(func() error {
			err := notifier.Notify(gctx, n)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				delivered++
			case errors.Is(err, ErrUnavailable):
				log.Debug().Str("notifier", nameOf(notifier)).Msg("Notifier unavailable")
				unavailable++
			default:
				errs = append(errs, err)
			}
			// collected rather than returned so siblings are not cancelled
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if delivered == 0 && unavailable > 0 {
		return ErrUnavailable
	}
	return nil
}

// Options configure FromNames.
type Options struct {
	Sound      string
	WebhookURL string
}

// FromNames builds a notifier from backend names: terminal-notifier,
// osascript, notify-send, webhook, none and auto. Unknown names are logged
// and skipped.
func FromNames(names []string, opts Options) Notifier {
	var backends Multi
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "auto":
			backends = append(backends, Auto(opts))
		case "none":
			return Nop{}
		case "terminal-notifier":
			backends = append(backends, NewTerminalNotifier(opts.Sound))
		case "osascript":
			backends = append(backends, NewOSAScript(opts.Sound))
		case "notify-send":
			backends = append(backends, NewNotifySend())
		case "webhook":
			backends = append(backends, NewWebhook(opts.WebhookURL))
		default:
			log.Warn().Str("notifier", name).Msg("Unknown notifier, skipping")
		}
	}

	switch len(backends) {
	case 0:
		return Auto(opts)
	case 1:
		return backends[0]
	default:
		return backends
	}
}

// Auto picks the platform's desktop notifier, plus the webhook when a URL
// is configured.
func Auto(opts Options) Notifier {
	var desktop Notifier
	switch runtime.GOOS {
	case "darwin":
		desktop = Fallback{NewTerminalNotifier(opts.Sound), NewOSAScript(opts.Sound)}
	default:
		desktop = NewNotifySend()
	}

	if opts.WebhookURL == "" {
		return desktop
	}
	return Multi{desktop, NewWebhook(opts.WebhookURL)}
}
