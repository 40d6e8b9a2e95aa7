// Package cli implements the subaru command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/N474NR4/UCHI-Subaru/internal/config"
	"github.com/N474NR4/UCHI-Subaru/internal/store"
	"github.com/N474NR4/UCHI-Subaru/internal/store/bolt"
	"github.com/N474NR4/UCHI-Subaru/internal/store/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config config.Config

	closeLog func()
}

// NewRootCommand creates the root command. cfg supplies the flag defaults,
// normally loaded from the environment.
func NewRootCommand(cfg config.Config) *cobra.Command {
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "subaru",
		Short: "Subaru model inventory",
		Long: `Keep a small inventory of Subaru models in a local database.

Records live in SQLite (--backend sqlite) or bbolt (--backend bolt) and
can be managed from the browser, the JSON API, or this command.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Config.Validate(); err != nil {
				return err
			}
			closeLog, err := setupLogger(opts.Config.LogPath)
			if err != nil {
				return err
			}
			opts.closeLog = closeLog
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.closeLog != nil {
				opts.closeLog()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.Config.Backend, "backend", "b", cfg.Backend, "storage backend (sqlite|bolt)")
	cmd.PersistentFlags().StringVarP(&opts.Config.DBPath, "db", "d", cfg.DBPath, "database file (default depends on backend)")
	cmd.PersistentFlags().StringVarP(&opts.Config.LogPath, "log", "l", cfg.LogPath, "also write logs to this file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// openStore opens the backend selected by cfg.
func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	var backend store.Backend
	switch cfg.Backend {
	case config.BackendSQLite:
		backend = sqlite.New(cfg.DBPath)
	case config.BackendBolt:
		backend = bolt.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	s := store.New(backend)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
