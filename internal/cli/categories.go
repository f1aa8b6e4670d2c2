package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Browse book categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConsole(func(c *console) error {
				cats, err := c.client.ListCategories(cmd.Context())
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, cats); handled {
					return err
				}
				if len(cats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No categories")
					return nil
				}
				rows := make([][]string, 0, len(cats))
				for _, cat := range cats {
					rows = append(rows, []string{formatID(cat.ID), cat.Name, yesNo(cat.IsActive), cat.Description})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Active", "Description"}, rows, []columnAlignment{alignRight}))
				return nil
			})
		},
	})
	return cmd
}
