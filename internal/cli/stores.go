package cli

import (
	"strconv"

	"github.com/dukerupert/lojas/internal/database"
	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/service"
	"github.com/spf13/cobra"
)

// NewStoresCommand creates the stores command group.
func NewStoresCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "Inspect registered stores",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stores with their address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoresList(cmd, rootOpts)
		},
	})

	return cmd
}

func runStoresList(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := databaseConfig(opts.v)
	if err != nil {
		return err
	}
	logger := opts.logger(cmd.ErrOrStderr())

	repo, err := database.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Listing never resolves postal codes.
	stores, err := service.NewStoreService(repo, nil, logger).ListStores(cmd.Context())
	if err != nil {
		return err
	}

	out := newOutput(cmd.OutOrStdout(), opts.Format)
	if opts.Format == "json" {
		if stores == nil {
			stores = []domain.Store{}
		}
		return out.JSON(stores)
	}

	rows := make([][]string, 0, len(stores))
	for _, s := range stores {
		row := []string{strconv.FormatInt(s.ID, 10), s.Name, "-", "-", "-"}
		if s.Address != nil {
			row[2] = s.Address.MaskedPostalCode()
			row[3] = s.Address.City
			row[4] = s.Address.State
		}
		rows = append(rows, row)
	}
	return out.Table([]string{"ID", "NAME", "POSTAL CODE", "CITY", "STATE"}, rows)
}
