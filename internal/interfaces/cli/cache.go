package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parse-summary cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove every cached parse summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			comps, err := cliCtx.Components()
			if err != nil {
				return err
			}
			defer cliCtx.Close()

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			n, err := comps.Service.InvalidateCache(ctx)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("removed %d cached summaries", n))
			return nil
		},
	})
	return cmd
}
