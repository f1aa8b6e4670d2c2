package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/approval"
	"github.com/booklify/admin/internal/cmsclient"
	"github.com/booklify/admin/internal/review"
)

func newBooksCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse books and review uploads",
	}
	cmd.AddCommand(
		newBooksListCommand(ctx),
		newBooksShowCommand(ctx),
		newBooksHistoryCommand(ctx),
		newBooksStatsCommand(ctx),
		newBooksDecisionCommand(ctx, approval.StatusApproved),
		newBooksDecisionCommand(ctx, approval.StatusRejected),
		newBooksResubmitCommand(ctx),
		newBooksFlagsCommand(ctx),
	)
	return cmd
}

func parseBookID(arg string) (uint, error) {
	return parseID("book", arg)
}

func parseID(kind, arg string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return uint(id), nil
}

func newBooksListCommand(ctx *commandContext) *cobra.Command {
	var (
		opts           cmsclient.ListOptions
		approvalStatus string
		status         string
		premium        bool
		ascending      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if approvalStatus != "" {
				s, err := approval.ParseStatus(approvalStatus)
				if err != nil {
					return err
				}
				opts.ApprovalStatus = &s
			}
			if status != "" {
				v, err := parsePublicationStatus(status)
				if err != nil {
					return err
				}
				opts.Status = &v
			}
			if cmd.Flags().Changed("premium") {
				opts.IsPremium = &premium
			}
			opts.Descending = !ascending

			return ctx.withConsole(func(c *console) error {
				list, err := c.client.ListBooks(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, list); handled {
					return err
				}
				printBookList(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Search, "search", "s", "", "Search title, author or ISBN")
	f.UintVar(&opts.CategoryID, "category", 0, "Category id")
	f.StringVar(&approvalStatus, "approval-status", "", "Pending, Approved, Rejected or 0/1/2")
	f.StringVar(&status, "status", "", "active or inactive")
	f.BoolVar(&premium, "premium", false, "Only premium (or --premium=false for free) books")
	f.StringVar(&opts.SortBy, "sort-by", "", "title, author, created_at, modified_at, total_views, average_rating")
	f.BoolVar(&ascending, "asc", false, "Sort ascending")
	f.IntVar(&opts.Page, "page", 1, "Page number")
	f.IntVar(&opts.PageSize, "page-size", 20, "Books per page")
	return cmd
}

func parsePublicationStatus(v string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "active", "1":
		return 1, nil
	case "inactive", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid status %q, want active or inactive", v)
	}
}

func printBookList(out io.Writer, list *cmsclient.BookList) {
	if len(list.Items) == 0 {
		fmt.Fprintln(out, "No books found")
		return
	}
	rows := make([][]string, 0, len(list.Items))
	for _, b := range list.Items {
		rows = append(rows, []string{
			formatID(b.ID),
			b.Title,
			b.Author,
			statusText(out, b.ApprovalStatus),
			publicationLabel(b.Status),
			yesNo(b.IsPremium),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Title", "Author", "Approval", "Status", "Premium"},
		rows,
		[]columnAlignment{alignRight},
	))
	fmt.Fprintf(out, "Page %d of %d (%d books)\n", list.Page, list.TotalPages, list.Total)
}

func publicationLabel(status int) string {
	if status == 1 {
		return "Active"
	}
	return "Inactive"
}

func newBooksShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				book, err := c.client.GetBook(cmd.Context(), id)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, book); handled {
					return err
				}
				printBook(cmd.OutOrStdout(), book)
				return nil
			})
		},
	}
}

func printBook(out io.Writer, b *cmsclient.Book) {
	fmt.Fprintf(out, "#%d %s\n", b.ID, b.Title)
	fmt.Fprintf(out, "Author:    %s\n", b.Author)
	if b.Publisher != "" {
		fmt.Fprintf(out, "Publisher: %s\n", b.Publisher)
	}
	if b.ISBN != "" {
		fmt.Fprintf(out, "ISBN:      %s\n", b.ISBN)
	}
	fmt.Fprintf(out, "Approval:  %s\n", statusText(out, b.ApprovalStatus))
	fmt.Fprintf(out, "Status:    %s\n", publicationLabel(b.Status))
	fmt.Fprintf(out, "Premium:   %s\n", yesNo(b.IsPremium))
	fmt.Fprintf(out, "Views:     %d, rating %.1f (%d)\n", b.TotalViews, b.AverageRating, b.TotalRatings)

	summary := approval.Summarize(b.ApprovalNote)
	if summary.HasHistory() {
		fmt.Fprintf(out, "Last note: [%s] %s (%d entries)\n", summary.LatestTag, summary.LatestMessage, summary.TotalEntryCount)
	}
}

func newBooksHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the approval history of a book, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				history, err := review.NewService(c.client, c.session.Roles).History(cmd.Context(), id)
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, history); handled {
					return err
				}
				printHistory(cmd.OutOrStdout(), history)
				return nil
			})
		},
	}
}

func printHistory(out io.Writer, h *review.History) {
	fmt.Fprintf(out, "#%d %s: %s", h.Book.ID, h.Book.Title, statusText(out, h.Book.ApprovalStatus))
	if h.Resubmitted {
		fmt.Fprint(out, " (resubmitted)")
	}
	fmt.Fprintln(out)

	if !h.Summary.HasHistory() {
		fmt.Fprintln(out, "No approval history")
		return
	}

	rows := make([][]string, 0, len(h.Timeline))
	for _, e := range h.Timeline {
		rows = append(rows, []string{formatTimestamp(e.Timestamp), tagText(out, e.Tag), e.Message})
	}
	fmt.Fprintln(out, renderTable([]string{"Time", "Action", "Message"}, rows, nil))
	fmt.Fprintf(out, "%d entries, latest: %s\n", h.Summary.TotalEntryCount, h.Summary.LatestTag.Label())
}

func newBooksStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show approval counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConsole(func(c *console) error {
				stats, err := c.client.Statistics(cmd.Context())
				if err != nil {
					return err
				}
				if handled, err := ctx.printJSON(cmd, stats); handled {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Counter", "Books"},
					[][]string{
						{"Pending", strconv.FormatInt(stats.PendingCount, 10)},
						{"Approved", strconv.FormatInt(stats.ApprovedCount, 10)},
						{"Rejected", strconv.FormatInt(stats.RejectedCount, 10)},
						{"Active", strconv.FormatInt(stats.ActiveCount, 10)},
						{"Premium", strconv.FormatInt(stats.PremiumCount, 10)},
						{"Total", strconv.FormatInt(stats.TotalCount, 10)},
					},
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

// newBooksDecisionCommand builds "approve" or "reject".
func newBooksDecisionCommand(ctx *commandContext, to approval.Status) *cobra.Command {
	var note string

	use, short := "approve <id>", "Approve a book"
	if to == approval.StatusRejected {
		use, short = "reject <id> --note <reason>", "Reject a book with a reason"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				book, err := review.NewService(c.client, c.session.Roles).ChangeStatus(cmd.Context(), id, to, note)
				if err != nil {
					return err
				}
				return ctx.reportBook(cmd, book, fmt.Sprintf("Book #%d is now %s", book.ID, book.ApprovalStatus))
			})
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "Note recorded in the approval history")
	if to == approval.StatusRejected {
		_ = cmd.MarkFlagRequired("note")
	}
	return cmd
}

func newBooksResubmitCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "resubmit <id>",
		Short: "Send a rejected book back for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return ctx.withConsole(func(c *console) error {
				book, err := review.NewService(c.client, c.session.Roles).Resubmit(cmd.Context(), id, note)
				if err != nil {
					return err
				}
				return ctx.reportBook(cmd, book, fmt.Sprintf("Book #%d resubmitted for approval", book.ID))
			})
		},
	}

	cmd.Flags().StringVarP(&note, "note", "n", "", "What was changed")
	return cmd
}

func newBooksFlagsCommand(ctx *commandContext) *cobra.Command {
	var active, premium bool

	cmd := &cobra.Command{
		Use:   "flags <id>",
		Short: "Change the publication status or premium flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			var activePtr, premiumPtr *bool
			if cmd.Flags().Changed("active") {
				activePtr = &active
			}
			if cmd.Flags().Changed("premium") {
				premiumPtr = &premium
			}
			if activePtr == nil && premiumPtr == nil {
				return fmt.Errorf("nothing to change, pass --active or --premium")
			}
			return ctx.withConsole(func(c *console) error {
				book, err := review.NewService(c.client, c.session.Roles).SetFlags(cmd.Context(), id, activePtr, premiumPtr)
				if err != nil {
					return err
				}
				return ctx.reportBook(cmd, book, fmt.Sprintf("Book #%d: %s, premium %s",
					book.ID, publicationLabel(book.Status), yesNo(book.IsPremium)))
			})
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "Publish (--active) or unpublish (--active=false)")
	cmd.Flags().BoolVar(&premium, "premium", false, "Mark premium (--premium) or free (--premium=false)")
	return cmd
}

func (c *commandContext) reportBook(cmd *cobra.Command, book *cmsclient.Book, message string) error {
	if handled, err := c.printJSON(cmd, book); handled {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}
