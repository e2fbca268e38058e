// Package main provides the prompt-tracker command: a Claude Code hook that
// records prompts per session and notifies when a task finishes or waits
// for input, plus commands to inspect the recorded history.
package main

import (
	"os"

	"github.com/thebtf/prompt-tracker/pkg/hooks"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(hooks.ExitFailure)
	}
	os.Exit(hooks.ExitSuccess)
}
