package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
	"github.com/thebtf/prompt-tracker/pkg/hooks"
)

func newStatuslineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "statusline",
		Short: "Print a one-line status for the Claude Code statusline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lookup hooks.LatestLookup
			store, err := a.openStore()
			if err != nil {
				log.Debug().Err(err).Msg("Statusline without store")
			} else {
				defer store.Close()
				lookup = gormdb.NewPromptStore(store)
			}

			hooks.RunStatusline[hooks.StatuslineInput](cmd.InOrStdin(), cmd.OutOrStdout(), func(in *hooks.StatuslineInput) string {
				return hooks.Statusline(cmd.Context(), lookup, in, time.Now())
			})
			return nil
		},
	}
}
