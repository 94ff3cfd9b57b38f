package cli

import (
	"fmt"

	"github.com/dukerupert/lojas/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := databaseConfig(rootOpts.v)
			if err != nil {
				return err
			}

			repo, err := database.Open(cmd.Context(), cfg, rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer repo.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.Driver)
			return err
		},
	}
}
