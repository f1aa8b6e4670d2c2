package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/cmsclient"
)

func newPlansCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Browse premium subscription plans",
	}
	cmd.AddCommand(
		newPlansListCommand(ctx),
		newPlansStatsCommand(ctx),
	)
	return cmd
}

func newPlansListCommand(ctx *commandContext) *cobra.Command {
	var (
		opts    cmsclient.PlanListOptions
		status  string
		popular bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscription plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				v, err := parsePublicationStatus(status)
				if err != nil {
					return err
				}
				opts.Status = &v
			}
			if cmd.Flags().Changed("popular") {
				opts.IsPopular = &popular
			}

			return ctx.withConsole(func(c *console) error {
				list, err := c.client.ListPlans(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, list); handled {
					return err
				}
				printPlanList(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Search, "search", "s", "", "Search plan name or description")
	f.StringVar(&status, "status", "", "active or inactive")
	f.BoolVar(&popular, "popular", false, "Only popular (or --popular=false for regular) plans")
	f.IntVar(&opts.Page, "page", 1, "Page number")
	f.IntVar(&opts.PageSize, "page-size", 20, "Plans per page")
	return cmd
}

func printPlanList(out io.Writer, list *cmsclient.PlanList) {
	if len(list.Items) == 0 {
		fmt.Fprintln(out, "No plans found")
		return
	}
	rows := make([][]string, 0, len(list.Items))
	for _, p := range list.Items {
		rows = append(rows, []string{
			formatID(p.ID),
			p.Name,
			formatVND(p.Price),
			strconv.Itoa(p.Duration) + " days",
			publicationLabel(p.Status),
			yesNo(p.IsPopular),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Price", "Duration", "Status", "Popular"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
	))
	fmt.Fprintf(out, "Page %d of %d (%d plans)\n", list.Page, list.TotalPages, list.Total)
}

func newPlansStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show subscription counters and revenue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConsole(func(c *console) error {
				stats, err := c.client.PlanStatistics(cmd.Context())
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, stats); handled {
					return err
				}
				popular := "-"
				if stats.PopularPlan != nil {
					popular = fmt.Sprintf("%s (%d)", stats.PopularPlan.Name, stats.PopularPlan.Subscribers)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Counter", "Value"},
					[][]string{
						{"Plans", strconv.FormatInt(stats.TotalPlans, 10)},
						{"Active plans", strconv.FormatInt(stats.ActivePlans, 10)},
						{"Subscribers", strconv.FormatInt(stats.ActiveSubscribers, 10)},
						{"Revenue", formatVND(stats.Revenue)},
						{"Most popular", popular},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

// formatVND groups thousands with dots, the way prices are written in Vietnam.
func formatVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " ₫"
}
