package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
	"github.com/thebtf/prompt-tracker/internal/worker"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port <= 0 {
				port = a.cfg.WorkerPort
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			svc := worker.NewService(Version, gormdb.NewPromptStore(store))
			if err := store.Ping(); err != nil {
				return fmt.Errorf("database not reachable: %w", err)
			}
			svc.SetReady(true)
			return svc.ListenAndServe(ctx, fmt.Sprintf("%s:%d", host, port))
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Listen address")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from PROMPT_TRACKER_WORKER_PORT or settings)")
	return cmd
}
