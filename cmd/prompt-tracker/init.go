package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thebtf/prompt-tracker/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the data directory and a default settings file",
		Long: `Create ~/.claude and write prompt-tracker.json with the default
settings. An existing settings file is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureAll(); err != nil {
				return fmt.Errorf("initialize %s: %w", config.DataDir(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settings: %s\nDatabase: %s\n", config.SettingsPath(), a.cfg.DBPath)
			return nil
		},
	}
}
