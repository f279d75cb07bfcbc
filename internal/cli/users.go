package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/five82/aula/internal/app"
	"github.com/five82/aula/internal/lms"
)

func (c *commands) newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admins)",
	}
	cmd.AddCommand(
		c.newUsersListCmd(),
		c.newUsersUpdateCmd(),
		c.newUsersDeleteCmd(),
	)
	return cmd
}

func (c *commands) newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				users, err := env.Session.Users(ctx)
				if err != nil {
					return alertError(env, err)
				}
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					admin := ""
					if u.IsAdmin {
						admin = "yes"
					}
					rows = append(rows, []string{id(u.ID), u.Email, u.DisplayName(), u.Role, admin})
				}
				return printTable(cmd, []string{"ID", "EMAIL", "NAME", "ROLE", "ADMIN"}, rows, "No users registered.")
			})
		},
	}
}

func (c *commands) newUsersUpdateCmd() *cobra.Command {
	var update lms.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update USER_ID",
		Short: "Change an account's name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if update == (lms.ProfileUpdate{}) {
				return errors.New("nothing to update (use --first-name, --last-name or --email)")
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				user, err := env.Session.EditUser(ctx, userID, update)
				if err != nil {
					return alertError(env, err)
				}
				printUser(cmd, user)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&update.FirstName, "first-name", "", "new first name")
	f.StringVar(&update.LastName, "last-name", "", "new last name")
	f.StringVar(&update.Email, "email", "", "new email")
	return cmd
}

func (c *commands) newUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete USER_ID",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !c.deps.IsInteractive() {
					return fmt.Errorf("refusing to delete user %d without --yes", userID)
				}
				confirmed := false
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete user %d?", userID)).
						Affirmative("Delete").
						Negative("Keep").
						Value(&confirmed),
				)).WithShowHelp(false)
				if err := c.runForm(cmd, form); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept")
					return nil
				}
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				if err := env.Session.DeleteUser(ctx, userID); err != nil {
					return alertError(env, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %d deleted\n", userID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}
