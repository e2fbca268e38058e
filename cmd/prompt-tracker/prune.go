package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
)

func newPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old completed records",
		Long: `Delete completed records that finished before the cutoff.

Open records and the highest-seq record of every session are kept, so
sequence numbers are never reused.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cutoff := time.Now().Add(-olderThan)
			n, err := gormdb.NewPromptStore(store).Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned prompt records")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d records\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of completed records to delete")
	return cmd
}
