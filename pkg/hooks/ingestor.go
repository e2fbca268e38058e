package hooks

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/prompt-tracker/internal/tracker"
)

// Correlator is the subset of tracker.Correlator the ingestor drives.
type Correlator interface {
	OnSubmit(ctx context.Context, sessionID, promptText, workingDir string) (tracker.Result, error)
	OnStop(ctx context.Context, sessionID string) (tracker.Result, error)
	OnWaitingSignal(ctx context.Context, sessionID, message, workingDir string) (tracker.Result, error)
}

// Outcome summarizes how one event was handled. Err is informational: it
// has already been logged and must not fail the hook.
type Outcome struct {
	EventID   string
	Event     string
	SessionID string
	Action    tracker.Action
	Duration  string
	Notified  bool
	Err       error
}

// Ingestor decodes hook payloads and dispatches them to a Correlator.
type Ingestor struct {
	correlator Correlator
}

// NewIngestor creates an Ingestor.
func NewIngestor(c Correlator) *Ingestor {
	return &Ingestor{correlator: c}
}

// Ingest decodes raw and dispatches it. Empty or malformed payloads are
// logged and ignored.
func (i *Ingestor) Ingest(ctx context.Context, raw []byte) Outcome {
	ev, err := DecodeEvent(raw)
	if err != nil {
		out := Outcome{EventID: uuid.NewString(), Action: tracker.ActionNoop, Err: err}
		log.Warn().Err(err).Str("event_id", out.EventID).Int("bytes", len(raw)).Msg("Ignoring unreadable hook payload")
		return out
	}
	return i.Dispatch(ctx, ev)
}

// Dispatch routes ev by hook_event_name.
func (i *Ingestor) Dispatch(ctx context.Context, ev Event) Outcome {
	out := Outcome{
		EventID:   uuid.NewString(),
		Event:     ev.HookEventName,
		SessionID: ev.SessionID,
		Action:    tracker.ActionNoop,
	}
	logger := log.With().
		Str("event_id", out.EventID).
		Str("event", ev.HookEventName).
		Str("session", ev.SessionID).
		Logger()

	var (
		res tracker.Result
		err error
	)
	switch ev.HookEventName {
	case EventUserPromptSubmit:
		res, err = i.correlator.OnSubmit(ctx, ev.SessionID, ev.Prompt, ev.CWD)
	case EventStop:
		if ev.StopHookActive {
			logger.Debug().Msg("Stop hook already active")
		}
		res, err = i.correlator.OnStop(ctx, ev.SessionID)
	case EventNotification:
		res, err = i.correlator.OnWaitingSignal(ctx, ev.SessionID, ev.Message, ev.CWD)
	case EventSubagentStop:
		// Subagents share the session id; closing here would end the parent's prompt.
		logger.Debug().Msg("Ignoring subagent stop")
		return out
	default:
		logger.Info().Msg("Ignoring unknown hook event")
		return out
	}

	out.Action = res.Action
	out.Duration = res.Duration
	out.Notified = res.Notified
	if err != nil {
		out.Err = err
		logError(logger, err)
	}
	return out
}

func logError(logger zerolog.Logger, err error) {
	switch tracker.KindOf(err) {
	case tracker.KindInput:
		logger.Warn().Err(err).Str("kind", string(tracker.KindInput)).Msg("Invalid hook event")
	case tracker.KindStore:
		logger.Error().Err(err).Str("kind", string(tracker.KindStore)).Msg("Prompt store failed, event dropped")
	default:
		logger.Info().Err(err).Msg("Hook event not processed")
	}
}
