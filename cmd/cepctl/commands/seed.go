package commands

import (
	"errors"
	"fmt"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/bootstrap"
	"github.com/spf13/cobra"
)

func (c *cli) seedCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load addresses from a YAML file into the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := address.LoadSeedFile(args[0])
			if err != nil {
				return err
			}

			backend, err := bootstrap.Open(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			var n int
			if force {
				n, err = address.Seed(cmd.Context(), backend.Store, addrs)
			} else {
				n, err = bootstrap.EnsureSeed(cmd.Context(), backend.Store, addrs, c.logger)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d addresses written\n", n, len(addrs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite addresses already in the store")
	return cmd
}

func (c *cli) migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DatabaseUrl == "" {
				return errors.New("migrate needs DATABASE_URL or --database-url")
			}
			if status {
				return bootstrap.MigrationStatus(c.cfg.DatabaseUrl)
			}
			return bootstrap.Migrate(c.cfg.DatabaseUrl, c.logger)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print applied migrations instead of applying")
	return cmd
}
