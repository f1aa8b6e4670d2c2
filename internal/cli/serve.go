package cli

import (
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/entrypoint"
)

func newServeCommand(ctx *commandContext, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the CMS API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return entrypoint.Run(cmd.Context(), cfg, version)
		},
	}
}
