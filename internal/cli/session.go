package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/booklify/admin/internal/tokenstore"
)

// EnvPassword lets scripts pass the login password without a flag.
const EnvPassword = "BOOKLIFY_PASSWORD"

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Sign in to the CMS and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}

			client, manager := ctx.newClient(cfg.Client.BaseURL)
			result, err := client.Login(cmd.Context(), args[0], password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			session := tokenstore.Session{
				BaseURL:  client.BaseURL(),
				Username: result.Username,
				Email:    result.Email,
				Roles:    result.AppRole,
				Token:    manager.Current(),
			}
			if err := store.Save(session); err != nil {
				return err
			}

			if handled, err := ctx.printJSON(cmd, session); handled {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s), token valid until %s\n",
				result.Username, strings.Join(result.AppRole, ", "), session.Token.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (default from "+EnvPassword+" or prompt)")
	return cmd
}

// Seams for the terminal path of promptPassword.
var (
	stdinIsTerminal = isTerminal
	readHidden      = term.ReadPassword
)

// promptPassword reads the password without echo when stdin is a terminal,
// otherwise one line of piped input.
func promptPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	var line string
	if f, ok := in.(*os.File); ok && stdinIsTerminal(f) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		secret, err := readHidden(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		line = string(secret)
	} else {
		read, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		line = strings.TrimRight(read, "\r\n")
	}

	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withConsole(func(c *console) error {
				if refresh {
					if _, err := c.tokens.ForceRefresh(cmd.Context()); err != nil {
						return fmt.Errorf("refresh token: %w", err)
					}
				}
				token := c.tokens.Current()
				if handled, err := ctx.printJSON(cmd, map[string]any{
					"base_url":   c.client.BaseURL(),
					"username":   c.session.Username,
					"email":      c.session.Email,
					"roles":      c.session.Roles,
					"expires_at": token.ExpiresAt,
				}); handled {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "User:    %s\n", c.session.Username)
				if c.session.Email != "" {
					fmt.Fprintf(out, "Email:   %s\n", c.session.Email)
				}
				fmt.Fprintf(out, "Roles:   %s\n", strings.Join(c.session.Roles, ", "))
				fmt.Fprintf(out, "Server:  %s\n", c.client.BaseURL())
				if token.ExpiresAt.IsZero() {
					fmt.Fprintln(out, "Expires: unknown")
				} else {
					fmt.Fprintf(out, "Expires: %s (in %s)\n", token.ExpiresAt.Local().Format(time.RFC1123),
						time.Until(token.ExpiresAt).Round(time.Second))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the token now")
	return cmd
}
