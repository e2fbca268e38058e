package hooks

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// HookResponse is the response sent back to Claude Code.
type HookResponse struct {
	Continue bool `json:"continue"`
}

// Exit codes for Claude Code hooks
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// WriteResponse writes a hook response line to w.
func WriteResponse(w io.Writer, cont bool) {
	data, _ := json.Marshal(HookResponse{Continue: cont})
	fmt.Fprintln(w, string(data))
}

// WriteError reports a setup failure on stderr and still lets the
// assistant continue.
func WriteError(stdout, stderr io.Writer, hookName string, err error) {
	fmt.Fprintf(stderr, "[%s] Error: %v\n", hookName, err)
	WriteResponse(stdout, true)
}

// RunHook reads one event from stdin, hands it to the ingestor and writes
// the response. Event handling never blocks the assistant: the response is
// always {"continue":true}.
func RunHook(ctx context.Context, stdin io.Reader, stdout io.Writer, ingestor *Ingestor) Outcome {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read hook input")
		raw = nil
	}

	out := ingestor.Ingest(ctx, raw)
	WriteResponse(stdout, true)
	return out
}

// StatuslineHandler renders the statusline for a decoded input. input is
// nil when stdin could not be read or parsed.
type StatuslineHandler[T any] func(input *T) string

// RunStatusline reads statusline JSON from stdin and prints the handler's
// line. No JSON wrapping; Claude Code shows stdout verbatim.
func RunStatusline[T any](stdin io.Reader, stdout io.Writer, handler StatuslineHandler[T]) {
	raw, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintln(stdout, handler(nil))
		return
	}

	var input T
	if err := json.Unmarshal(raw, &input); err != nil {
		fmt.Fprintln(stdout, handler(nil))
		return
	}

	fmt.Fprintln(stdout, handler(&input))
}
