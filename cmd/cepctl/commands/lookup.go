package commands

import (
	"fmt"
	"io"

	"github.com/dukerupert/cepfinder/internal/address"
	"github.com/dukerupert/cepfinder/internal/bootstrap"
	"github.com/dukerupert/cepfinder/internal/cep"
	"github.com/dukerupert/cepfinder/internal/lookup"
	"github.com/dukerupert/cepfinder/internal/notify"
	"github.com/spf13/cobra"
)

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <cep>",
		Short: "Look a CEP up in the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.lookup(cmd, lookup.KindSearch, args[0])
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <cep>",
		Short: "Fetch a CEP from ViaCEP and store it locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.lookup(cmd, lookup.KindSync, args[0])
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether ViaCEP is answering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, closeFn, err := c.coordinator(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			available := coord.CheckStatus(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), coord.State().ServiceStatusText())
			if !available {
				return errUnsuccessful
			}
			return nil
		},
	}
}

func (c *cli) lookup(cmd *cobra.Command, kind lookup.Kind, raw string) error {
	coord, closeFn, err := c.coordinator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	coord.Input(raw)

	var out lookup.Outcome
	if kind == lookup.KindSync {
		out = coord.Sync(cmd.Context())
	} else {
		out = coord.Search(cmd.Context())
	}

	if out.Status != lookup.StatusFound {
		return errUnsuccessful
	}
	printAddress(cmd.OutOrStdout(), out.Address)
	return nil
}

func (c *cli) coordinator(cmd *cobra.Command) (*lookup.Coordinator, func(), error) {
	backend, err := bootstrap.Open(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return nil, nil, err
	}

	coord := lookup.New(backend.Service, lookup.Options{
		Notifier: notify.NewWriterNotifier(cmd.OutOrStdout()),
		Logger:   c.logger,
		Timeout:  c.cfg.LookupTimeout,
	})
	return coord, backend.Close, nil
}

func printAddress(w io.Writer, addr *address.Address) {
	fmt.Fprintf(w, "CEP:         %s\n", cep.Format(addr.CEP))
	fmt.Fprintf(w, "Logradouro:  %s\n", addr.Street)
	if addr.Complement != "" {
		fmt.Fprintf(w, "Complemento: %s\n", addr.Complement)
	}
	fmt.Fprintf(w, "Bairro:      %s\n", addr.Neighborhood)
	fmt.Fprintf(w, "Cidade:      %s/%s\n", addr.City, addr.State)
}
