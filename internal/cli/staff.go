package cli

import (
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/cmsclient"
)

func newStaffCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage Admin and Staff accounts (Admin only)",
	}
	cmd.AddCommand(
		newStaffListCommand(ctx),
		newStaffStatusCommand(ctx, true),
		newStaffStatusCommand(ctx, false),
	)
	return cmd
}

func newStaffListCommand(ctx *commandContext) *cobra.Command {
	var (
		opts   cmsclient.AccountListOptions
		active bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Admin and Staff accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("active") {
				opts.IsActive = &active
			}
			return ctx.withConsole(func(c *console) error {
				list, err := c.client.ListStaff(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, list); handled {
					return err
				}
				printAccountList(cmd.OutOrStdout(), list, "accounts")
				return nil
			})
		},
	}

	accountListFlags(cmd, &opts, &active)
	cmd.Flags().StringVar(&opts.Role, "role", "", "Admin or Staff")
	return cmd
}

// newStaffStatusCommand builds "activate" or "deactivate".
func newStaffStatusCommand(ctx *commandContext, active bool) *cobra.Command {
	use, short := "activate <id>", "Re-enable a staff account"
	if !active {
		use, short = "deactivate <id>", "Disable a staff account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("staff", args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				account, err := c.client.UpdateStaff(cmd.Context(), id, cmsclient.StaffUpdate{IsActive: &active})
				if err != nil {
					return err
				}
				return ctx.reportAccount(cmd, account)
			})
		},
	}
}
