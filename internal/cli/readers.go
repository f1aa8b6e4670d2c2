package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/cmsclient"
)

func newReadersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readers",
		Short: "Browse reader accounts and manage their subscriptions",
	}
	cmd.AddCommand(
		newReadersListCommand(ctx),
		newReadersShowCommand(ctx),
		newReadersStatusCommand(ctx, true),
		newReadersStatusCommand(ctx, false),
		newReadersManageCommand(ctx),
	)
	return cmd
}

// accountListFlags binds the filters shared by "readers list" and "staff list".
func accountListFlags(cmd *cobra.Command, opts *cmsclient.AccountListOptions, active *bool) {
	f := cmd.Flags()
	f.StringVarP(&opts.Search, "search", "s", "", "Search username, email, name or phone")
	f.BoolVar(active, "active", false, "Only active (or --active=false for disabled) accounts")
	f.IntVar(&opts.Page, "page", 1, "Page number")
	f.IntVar(&opts.PageSize, "page-size", 20, "Accounts per page")
}

func newReadersListCommand(ctx *commandContext) *cobra.Command {
	var (
		opts       cmsclient.AccountListOptions
		active     bool
		subscribed bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reader accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("active") {
				opts.IsActive = &active
			}
			if cmd.Flags().Changed("subscribed") {
				opts.Subscribed = &subscribed
			}
			return ctx.withConsole(func(c *console) error {
				list, err := c.client.ListReaders(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, list); handled {
					return err
				}
				printAccountList(cmd.OutOrStdout(), list, "readers")
				return nil
			})
		},
	}

	accountListFlags(cmd, &opts, &active)
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "Only readers with (or --subscribed=false without) a current plan")
	return cmd
}

func printAccountList(out io.Writer, list *cmsclient.AccountList, noun string) {
	if len(list.Items) == 0 {
		fmt.Fprintf(out, "No %s found\n", noun)
		return
	}
	rows := make([][]string, 0, len(list.Items))
	for _, a := range list.Items {
		rows = append(rows, []string{
			formatID(a.ID),
			a.Username,
			a.FullName,
			a.Email,
			a.Role,
			activeLabel(a.IsActive),
			formatTimestamp(a.LastLoginAt),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Username", "Name", "Email", "Role", "Status", "Last login"},
		rows,
		[]columnAlignment{alignRight},
	))
	fmt.Fprintf(out, "Page %d of %d (%d %s)\n", list.Page, list.TotalPages, list.Total, noun)
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Disabled"
}

func newReadersShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a reader with subscription and payment history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reader", args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				reader, err := c.client.GetReader(cmd.Context(), id)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, reader); handled {
					return err
				}
				printReader(cmd.OutOrStdout(), reader)
				return nil
			})
		},
	}
}

func printReader(out io.Writer, r *cmsclient.Reader) {
	fmt.Fprintf(out, "#%d %s (%s)\n", r.ID, r.Username, activeLabel(r.IsActive))
	if r.FullName != "" {
		fmt.Fprintf(out, "Name:   %s\n", r.FullName)
	}
	fmt.Fprintf(out, "Email:  %s\n", r.Email)
	if r.Phone != "" {
		fmt.Fprintf(out, "Phone:  %s\n", r.Phone)
	}
	if sub := r.CurrentSubscription; sub != nil {
		fmt.Fprintf(out, "Plan:   %s until %s, auto renew %s\n",
			sub.Plan.Name, formatTimestamp(&sub.EndDate), yesNo(sub.AutoRenew))
	} else {
		fmt.Fprintln(out, "Plan:   none")
	}

	if len(r.SubscriptionHistory) > 0 {
		rows := make([][]string, 0, len(r.SubscriptionHistory))
		for _, s := range r.SubscriptionHistory {
			rows = append(rows, []string{
				s.Plan.Name,
				formatTimestamp(&s.StartDate),
				formatTimestamp(&s.EndDate),
				yesNo(s.IsActive),
				yesNo(s.IsGift),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Plan", "Start", "End", "Active", "Gift"}, rows, nil))
	}
	if len(r.PaymentHistory) > 0 {
		rows := make([][]string, 0, len(r.PaymentHistory))
		for _, p := range r.PaymentHistory {
			paid := p.PaidAt
			if paid == nil {
				paid = &p.CreatedAt
			}
			rows = append(rows, []string{formatTimestamp(paid), formatVND(p.Amount), p.Method, p.Status})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Paid", "Amount", "Method", "Status"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}
}

// newReadersStatusCommand builds "activate" or "deactivate".
func newReadersStatusCommand(ctx *commandContext, active bool) *cobra.Command {
	use, short := "activate <id>", "Re-enable a reader account"
	if !active {
		use, short = "deactivate <id>", "Disable a reader account"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reader", args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				account, err := c.client.SetReaderActive(cmd.Context(), id, active)
				if err != nil {
					return err
				}
				return ctx.reportAccount(cmd, account)
			})
		},
	}
}

func (c *commandContext) reportAccount(cmd *cobra.Command, account *cmsclient.Account) error {
	if handled, err := c.printJSON(cmd, account); handled {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account #%d %s is now %s\n", account.ID, account.Username, activeLabel(account.IsActive))
	return nil
}

var manageActions = []string{"extend", "cancel", "gift", "toggle_auto_renew", "re_subscription"}

func newReadersManageCommand(ctx *commandContext) *cobra.Command {
	var (
		req    cmsclient.ManageSubscriptionRequest
		amount int64
	)

	cmd := &cobra.Command{
		Use:       "manage <id> <action>",
		Short:     "Extend, cancel, gift, toggle auto renew or re-subscribe",
		Args:      cobra.ExactArgs(2),
		ValidArgs: manageActions,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reader", args[0])
			if err != nil {
				return err
			}
			req.Action = strings.ToLower(strings.TrimSpace(args[1]))
			if cmd.Flags().Changed("amount") {
				req.Amount = &amount
			}
			return ctx.withConsole(func(c *console) error {
				sub, err := c.client.ManageSubscription(cmd.Context(), id, req)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, sub); handled {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reader #%d: %s until %s, active %s, auto renew %s\n",
					id, sub.Plan.Name, formatTimestamp(&sub.EndDate), yesNo(sub.IsActive), yesNo(sub.AutoRenew))
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.UintVar(&req.PlanID, "plan", 0, "Plan id for gift and re_subscription")
	f.IntVar(&req.DurationDays, "days", 0, "Days to add for extend")
	f.Int64Var(&amount, "amount", 0, "Amount paid for re_subscription (default plan price)")
	f.StringVar(&req.PaymentMethod, "method", "", "Payment method for re_subscription")
	f.StringVar(&req.TransactionID, "transaction", "", "Payment transaction id")
	return cmd
}
