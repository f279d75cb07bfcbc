package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/five82/aula/internal/app"
	"github.com/five82/aula/internal/session"
)

// Deps are the process-level hooks commands run against. Tests replace
// them; main wires the real ones.
type Deps struct {
	Open          func(app.Options) (*app.Env, error)
	RunTUI        func(context.Context, app.Options) error
	IsInteractive func() bool
	// Stdin feeds interactive forms. Nil means os.Stdin.
	Stdin io.Reader
}

type globalFlags struct {
	configPath string
	apiURL     string
	verbose    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "config file (default ~/.config/aula/config.toml)")
	fs.StringVar(&g.apiURL, "api", "", "override api.base_url")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "also log to stderr")
}

func (g *globalFlags) options(cmd *cobra.Command) app.Options {
	opts := app.Options{ConfigPath: g.configPath, APIURL: g.apiURL}
	if g.verbose {
		opts.Console = cmd.ErrOrStderr()
	}
	return opts
}

// NewRootCmd creates the top-level "aula" command. Without a subcommand it
// starts the TUI.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Open == nil {
		deps.Open = app.Open
	}
	if deps.RunTUI == nil {
		deps.RunTUI = app.Run
	}
	if deps.IsInteractive == nil {
		deps.IsInteractive = func() bool { return false }
	}

	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "aula",
		Short:         "Terminal client for the aula sign language courses",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return deps.RunTUI(cmd.Context(), g.options(cmd))
		},
	}
	g.register(root.PersistentFlags())

	c := &commands{deps: deps, flags: g}
	root.AddCommand(
		c.newTUICmd(),
		c.newLoginCmd(),
		c.newLogoutCmd(),
		c.newRegisterCmd(),
		c.newWhoamiCmd(),
		c.newProfileCmd(),
		c.newCoursesCmd(),
		c.newModulesCmd(),
		c.newLessonsCmd(),
		c.newResourcesCmd(),
		c.newProgressCmd(),
		c.newAchievementsCmd(),
		c.newCompleteCmd(),
		c.newUsersCmd(),
		c.newLogsCmd(),
	)
	return root
}

type commands struct {
	deps  Deps
	flags *globalFlags
}

func (c *commands) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.deps.RunTUI(cmd.Context(), c.flags.options(cmd))
		},
	}
}

// withEnv opens the environment for one command. With resume set, a stored
// session is restored first; a missing one is not an error.
func (c *commands) withEnv(cmd *cobra.Command, resume bool, fn func(context.Context, *app.Env) error) (err error) {
	env, err := c.deps.Open(c.flags.options(cmd))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()
	if resume {
		if _, err := env.Session.Resume(ctx); err != nil && !errors.Is(err, session.ErrNoSession) {
			env.Logger.Warn().Err(err).Msg("session resume failed")
		}
	}
	return fn(ctx, env)
}
