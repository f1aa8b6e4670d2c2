// Package cli implements the booklify command line: the CMS server and the
// approval console that talks to it.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the booklify command tree.
func NewRootCommand(version string) *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "booklify",
		Short:         "Booklify admin: CMS server and approval console",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.baseURLFlag, "base-url", "", "CMS API root (default from BOOKLIFY_BASE_URL)")
	flags.StringVar(&ctx.tokenFileFlag, "token-file", "", "Session file (default from BOOKLIFY_TOKEN_FILE)")
	flags.StringVar(&ctx.envFileFlag, "env-file", ".env", "Optional .env file loaded before the environment")
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.BoolVar(&ctx.jsonFlag, "json", false, "Print machine readable JSON")

	rootCmd.AddCommand(newServeCommand(ctx, version))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newLogoutCommand(ctx))
	rootCmd.AddCommand(newWhoamiCommand(ctx))
	rootCmd.AddCommand(newBooksCommand(ctx))
	rootCmd.AddCommand(newCategoriesCommand(ctx))
	rootCmd.AddCommand(newUsersCommand(ctx))
	rootCmd.AddCommand(newPlansCommand(ctx))
	rootCmd.AddCommand(newReadersCommand(ctx))
	rootCmd.AddCommand(newStaffCommand(ctx))

	return rootCmd
}
