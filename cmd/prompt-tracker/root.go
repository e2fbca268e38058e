package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	"github.com/thebtf/prompt-tracker/internal/config"
	gormdb "github.com/thebtf/prompt-tracker/internal/db/gorm"
	"github.com/thebtf/prompt-tracker/internal/notify"
	"github.com/thebtf/prompt-tracker/internal/privacy"
	"github.com/thebtf/prompt-tracker/internal/tracker"
)

// app holds per-invocation state shared by subcommands.
type app struct {
	cfg    *config.Config
	debug  bool
	dbPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "prompt-tracker",
		Short: "Track Claude Code prompts and notify on completion",
		Long: `Track Claude Code prompts and notify on completion.

Without a subcommand, prompt-tracker reads one hook event from stdin, the
same as "prompt-tracker hook". Register it for the UserPromptSubmit, Stop
and Notification hooks.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHook(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database path or DSN (overrides settings)")

	root.AddCommand(
		newHookCmd(a),
		newInitCmd(a),
		newStatuslineCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newPruneCmd(a),
	)
	return root
}

// setup loads settings and configures logging. Stdout is reserved for hook
// responses, so logs go to stderr.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if a.debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	return nil
}

func (a *app) openStore() (*gormdb.Store, error) {
	gormLevel := logger.Silent
	if a.debug {
		gormLevel = logger.Info
	}
	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   a.cfg.DBDriver,
		Path:     a.cfg.DBPath,
		MaxConns: a.cfg.MaxConns,
		LogLevel: gormLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("open prompt store: %w", err)
	}
	return store, nil
}

func (a *app) notifier() notify.Notifier {
	return notify.FromNames(a.cfg.Notifiers, notify.Options{
		Sound:      a.cfg.NotifySound,
		WebhookURL: a.cfg.WebhookURL,
	})
}

func (a *app) correlator(store *gormdb.Store) *tracker.Correlator {
	return tracker.New(gormdb.NewPromptStore(store), a.notifier(),
		tracker.WithStoreTimeout(a.cfg.StoreTimeout()),
		tracker.WithNotifyTimeout(a.cfg.NotifyTimeout()),
		tracker.WithRetries(a.cfg.StoreRetries, tracker.DefaultRetryBackoff),
		tracker.WithPromptCleaner(privacy.Cleaner(a.cfg.StripPrivate)),
	)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
