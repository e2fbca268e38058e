// Package hooks turns Claude Code hook payloads into correlator calls.
package hooks

import (
	"bytes"
	"errors"

	"github.com/goccy/go-json"
)

// Hook event names.
const (
	EventUserPromptSubmit = "UserPromptSubmit"
	EventStop             = "Stop"
	EventSubagentStop     = "SubagentStop"
	EventNotification     = "Notification"
)

// ErrEmptyPayload is returned for an empty or whitespace-only payload.
var ErrEmptyPayload = errors.New("empty hook payload")

// Event is the JSON object Claude Code writes to a hook's stdin. Fields a
// given event does not carry are left empty; unknown fields are ignored.
type Event struct {
	SessionID      string `json:"session_id"`
	HookEventName  string `json:"hook_event_name"`
	Prompt         string `json:"prompt"`
	CWD            string `json:"cwd"`
	Message        string `json:"message"`
	TranscriptPath string `json:"transcript_path"`
	PermissionMode string `json:"permission_mode"`
	StopHookActive bool   `json:"stop_hook_active"`
}

// DecodeEvent parses a hook payload.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if len(bytes.TrimSpace(raw)) == 0 {
		return ev, ErrEmptyPayload
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}
