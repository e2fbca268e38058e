package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/prompt-tracker/internal/config"
	"github.com/thebtf/prompt-tracker/pkg/hooks"
)

func newHookCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Process one Claude Code hook event from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHook(cmd)
		},
	}
}

// runHook handles one event. Only setup failures return an error, and even
// then the assistant is told to continue.
func (a *app) runHook(cmd *cobra.Command) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	if err := config.EnsureDataDir(); err != nil {
		err = fmt.Errorf("create data dir: %w", err)
		log.Error().Err(err).Str("dir", config.DataDir()).Msg("Hook setup failed")
		hooks.WriteError(cmd.OutOrStdout(), cmd.ErrOrStderr(), "prompt-tracker", err)
		return err
	}

	store, err := a.openStore()
	if err != nil {
		log.Error().Err(err).Str("db", a.cfg.DBPath).Msg("Hook setup failed")
		hooks.WriteError(cmd.OutOrStdout(), cmd.ErrOrStderr(), "prompt-tracker", err)
		return err
	}
	defer store.Close()

	out := hooks.RunHook(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), hooks.NewIngestor(a.correlator(store)))
	log.Debug().
		Str("event_id", out.EventID).
		Str("event", out.Event).
		Str("action", string(out.Action)).
		Msg("Hook done")
	return nil
}
