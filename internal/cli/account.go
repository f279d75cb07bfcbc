package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/five82/aula/internal/app"
	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/session"
)

var errMissingCredentials = errors.New("email and password are required (use --email and --password)")

func (c *commands) newLoginCmd() *cobra.Command {
	var creds lms.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if creds.Email == "" || creds.Password == "" {
				if !c.deps.IsInteractive() {
					return errMissingCredentials
				}
				if err := c.runForm(cmd, loginForm(&creds)); err != nil {
					return err
				}
			}
			return c.withEnv(cmd, false, func(ctx context.Context, env *app.Env) error {
				sess, err := env.Session.Login(ctx, creds)
				if err != nil {
					return alertError(env, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.CurrentUser.DisplayName())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return cmd
}

func (c *commands) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, false, func(ctx context.Context, env *app.Env) error {
				if err := env.Session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

func (c *commands) newRegisterCmd() *cobra.Command {
	var reg lms.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reg.Email == "" || reg.Password == "" || reg.FirstName == "" {
				if !c.deps.IsInteractive() {
					return errors.New("--email, --password and --first-name are required")
				}
				if err := c.runForm(cmd, registerForm(&reg)); err != nil {
					return err
				}
			}
			return c.withEnv(cmd, false, func(ctx context.Context, env *app.Env) error {
				if err := env.Session.Register(ctx, reg); err != nil {
					return alertError(env, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), env.Store.Snapshot().Alert.Text)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&reg.Email, "email", "", "account email")
	f.StringVar(&reg.Password, "password", "", "password (at least 6 characters)")
	f.StringVar(&reg.FirstName, "first-name", "", "first name")
	f.StringVar(&reg.LastName, "last-name", "", "last name")
	f.StringVar(&reg.Role, "role", "student", "student or teacher")
	return cmd
}

func (c *commands) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, true, func(_ context.Context, env *app.Env) error {
				sess := env.Session.Current()
				if !sess.LoggedIn {
					return session.ErrNotLoggedIn
				}
				printUser(cmd, sess.CurrentUser)
				return nil
			})
		},
	}
}

func (c *commands) newProfileCmd() *cobra.Command {
	var update lms.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if update == (lms.ProfileUpdate{}) {
				return errors.New("nothing to update (use --first-name, --last-name or --email)")
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				user, err := env.Session.UpdateProfile(ctx, update)
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

func printUser(cmd *cobra.Command, u lms.UserSummary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold(u.DisplayName()))
	if u.Email != "" && u.Email != u.DisplayName() {
		fmt.Fprintf(out, "  email   %s\n", u.Email)
	}
	if u.Role != "" {
		fmt.Fprintf(out, "  role    %s\n", u.Role)
	}
	fmt.Fprintf(out, "  points  %d\n", u.CurrentPoints)
}

// alertError prefers the user-facing alert the session manager raised.
func alertError(env *app.Env, err error) error {
	alert := env.Store.Snapshot().Alert
	if !alert.Display || strings.TrimSpace(alert.Text) == "" {
		return err
	}
	return fmt.Errorf("%s: %w", alert.Text, err)
}

// Forms

func loginForm(creds *lms.Credentials) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&creds.Email).
				Validate(requireValue("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&creds.Password).
				Validate(requireValue("password")),
		),
	).WithShowHelp(false)
}

func registerForm(reg *lms.Registration) *huh.Form {
	if reg.Role == "" {
		reg.Role = "student"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("First name").Value(&reg.FirstName).Validate(requireValue("first name")),
			huh.NewInput().Title("Last name").Value(&reg.LastName),
			huh.NewInput().Title("Email").Value(&reg.Email).Validate(requireValue("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&reg.Password).
				Validate(func(s string) error {
					if len(s) < 6 {
						return errors.New("at least 6 characters")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("Student", "student"),
					huh.NewOption("Teacher", "teacher"),
				).
				Value(&reg.Role),
		),
	).WithShowHelp(false)
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func (c *commands) runForm(cmd *cobra.Command, form *huh.Form) error {
	if c.deps.Stdin != nil {
		form = form.WithInput(c.deps.Stdin)
	}
	form = form.WithOutput(cmd.ErrOrStderr())
	if err := form.RunWithContext(cmd.Context()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errors.New("cancelled")
		}
		return err
	}
	return nil
}
