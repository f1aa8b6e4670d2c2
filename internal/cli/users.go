package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/booklify/admin/internal/database"
	"github.com/booklify/admin/internal/entities"
	"github.com/booklify/admin/internal/entrypoint"
)

func newUsersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage CMS accounts in the local database",
	}
	cmd.AddCommand(newUsersCreateCommand(ctx))
	return cmd
}

func newUsersCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		email    string
		password string
		role     string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an Admin or Staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Database.Path
			}
			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			db, err := database.NewDatabase(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing database")
				}
			}()

			service, err := entrypoint.NewAuthService(db, cfg.Auth)
			if err != nil {
				return err
			}
			user, err := service.CreateUser(args[0], email, password, entities.UserRole(role))
			if err != nil {
				return err
			}

			if handled, err := ctx.printJSON(cmd, user); handled {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s account %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&email, "email", "", "Email address (required)")
	f.StringVarP(&password, "password", "p", "", "Password (prompted when empty)")
	f.StringVar(&role, "role", string(entities.UserRoleStaff), "Admin or Staff")
	f.StringVar(&dbPath, "db", "", "Database path (default from DATABASE_PATH)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
