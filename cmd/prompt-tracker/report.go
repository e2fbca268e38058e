package main

import (
	"time"

	"github.com/spf13/cobra"

	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
	"github.com/thebtf/prompt-tracker/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		format   string
		recent   int
		sessions int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize recorded prompts",
		Long: `Summarize recorded prompts: totals, records per session, completed
and open counts, and the most recent records.

Status markers: ✓ completed, ⏳ open, ⌛ waited for input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := report.Build(cmd.Context(), gormdb.NewPromptStore(store), report.Options{
				Sessions: sessions,
				Recent:   recent,
			}, time.Now())
			if err != nil {
				return err
			}
			return report.Render(cmd.OutOrStdout(), rep, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().IntVar(&recent, "recent", report.DefaultRecent, "Number of recent records to show")
	cmd.Flags().IntVar(&sessions, "sessions", 0, "Maximum sessions to list (0 for all)")
	return cmd
}
