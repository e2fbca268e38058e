package notify

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecNotifier delivers notifications by running a local binary.
type ExecNotifier struct {
	name   string
	binary string
	args   func(n Notification) []string
}

// Name returns the backend name.
func (e *ExecNotifier) Name() string {
	return e.name
}

// Notify runs the backend binary. A missing binary yields ErrUnavailable.
func (e *ExecNotifier) Notify(ctx context.Context, n Notification) error {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, e.binary)
	}

	cmd := exec.CommandContext(ctx, path, e.args(n)...) // #nosec G204 -- binary is one of the fixed backends
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", e.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NewTerminalNotifier uses terminal-notifier (macOS).
func NewTerminalNotifier(sound string) *ExecNotifier {
	return &ExecNotifier{
		name:   "terminal-notifier",
		binary: "terminal-notifier",
		args: func(n Notification) []string {
			args := []string{"-title", n.Title, "-subtitle", n.Subtitle}
			if sound != "" {
				args = append([]string{"-sound", sound}, args...)
			}
			if n.Message != "" {
				args = append(args, "-message", n.Message)
			}
			return args
		},
	}
}

// NewOSAScript uses AppleScript's display notification (macOS, always present).
func NewOSAScript(sound string) *ExecNotifier {
	return &ExecNotifier{
		name:   "osascript",
		binary: "osascript",
		args: func(n Notification) []string {
			script := fmt.Sprintf("display notification %s with title %s subtitle %s",
				appleScriptString(n.Message), appleScriptString(n.Title), appleScriptString(n.Subtitle))
			if sound != "" {
				script += " sound name " + appleScriptString(sound)
			}
			return []string{"-e", script}
		},
	}
}

// NewNotifySend uses libnotify's notify-send (Linux desktops).
func NewNotifySend() *ExecNotifier {
	return &ExecNotifier{
		name:   "notify-send",
		binary: "notify-send",
		args: func(n Notification) []string {
			body := n.Subtitle
			if n.Message != "" {
				body += "\n" + n.Message
			}
			return []string{"--app-name=prompt-tracker", n.Title, body}
		},
	}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
