package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
	"github.com/thebtf/prompt-tracker/internal/report"
	"github.com/thebtf/prompt-tracker/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-print the report whenever the database changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if store.Driver() != gormdb.DriverSQLite {
				return fmt.Errorf("watch needs the sqlite driver, got %q", store.Driver())
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			prompts := gormdb.NewPromptStore(store)
			out := cmd.OutOrStdout()
			var mu sync.Mutex
			render := func() {
				mu.Lock()
				defer mu.Unlock()
				rep, err := report.Build(ctx, prompts, report.Options{Recent: recent}, time.Now())
				if err != nil {
					log.Warn().Err(err).Msg("Failed to build report")
					return
				}
				_, _ = io.WriteString(out, "\n")
				if err := report.Render(out, rep, report.FormatText); err != nil {
					log.Warn().Err(err).Msg("Failed to render report")
				}
			}

			w, err := watcher.New(a.cfg.DBPath, watcher.Options{
				OnChange: render,
				OnDelete: func() {
					log.Warn().Str("db", a.cfg.DBPath).Msg("Database deleted, waiting for it to be recreated")
				},
			})
			if err != nil {
				return err
			}
			if err := w.Start(); err != nil {
				return fmt.Errorf("watch %s: %w", a.cfg.DBPath, err)
			}
			defer w.Stop()

			render()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", report.DefaultRecent, "Number of recent records to show")
	return cmd
}
