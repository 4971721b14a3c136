package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				if err := b.Migrate(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List embedded migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withBackend(cmd, func(ctx context.Context, b Backend) error {
				rows, err := b.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				if rt.isJSON() {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				for _, r := range rows {
					state := color.New(color.FgYellow).Sprint("PENDING")
					if r.Applied {
						state = color.New(color.FgGreen).Sprint("APPLIED")
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %05d  %s\n", state, r.Version, r.Path)
				}
				return nil
			})
		},
	})

	return cmd
}
