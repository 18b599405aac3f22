// Package commands implements cepctl, the terminal host of the CEP finder.
package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/cepfinder/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errUnsuccessful makes the process exit 1 without printing an error:
// the notifications already told the user what happened.
var errUnsuccessful = errors.New("unsuccessful")

type cli struct {
	v      *viper.Viper
	cfg    *internal.Config
	logger *slog.Logger
}

// Execute runs cepctl with the process arguments.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil && !errors.Is(err, errUnsuccessful) {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
	}
	return err
}

// NewRootCmd builds the command tree. Flags and environment variables are
// read through the same viper keys the server uses.
func NewRootCmd() *cobra.Command {
	c := &cli{v: internal.NewViper()}

	root := &cobra.Command{
		Use:           "cepctl",
		Short:         "Look up Brazilian postal codes (CEP) from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Startup warnings (missing .env) go to stderr and only when they matter.
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelError})))
			internal.LoadDotEnv()

			cfg, err := internal.Load(c.v)
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = internal.NewLogger(cmd.ErrOrStderr(), cfg.Env, cfg.LogLevel)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("database-url", "", "PostgreSQL URL (empty uses the in-memory store)")
	flags.String("seed-file", "", "YAML address list loaded into the store on start")
	flags.String("viacep-url", "", "ViaCEP API root")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Duration("timeout", 0, "per-lookup timeout")

	for key, flag := range map[string]string{
		"database_url":    "database-url",
		"store_seed_file": "seed-file",
		"viacep_base_url": "viacep-url",
		"log_level":       "log-level",
		"lookup_timeout":  "timeout",
	} {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		c.searchCmd(),
		c.syncCmd(),
		c.statusCmd(),
		c.seedCmd(),
		c.migrateCmd(),
	)
	return root
}
