package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/five82/aula/internal/config"
	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/logging"
	"github.com/five82/aula/internal/remote"
	"github.com/five82/aula/internal/selection"
	"github.com/five82/aula/internal/session"
	"github.com/five82/aula/internal/state"
	"github.com/five82/aula/internal/storage"
	"github.com/five82/aula/internal/ui"
)

// Options configure how the environment is assembled.
type Options struct {
	ConfigPath string
	APIURL     string // overrides api.base_url when set
	// Console, when non-nil, receives human-readable log lines in addition
	// to the log file. One-shot commands pass os.Stderr under --verbose.
	Console io.Writer
}

// Env holds every component of a running client. It is built once per
// process and passed down; nothing in it is global.
type Env struct {
	Config    config.Config
	Logger    zerolog.Logger
	Client    *lms.Client
	Store     *state.Store
	Storage   storage.Storage
	Session   *session.Manager
	Selection *selection.Context
	Remote    *remote.Adapters
	Syncer    *remote.Syncer

	closers []io.Closer
}

// Open loads configuration and wires the components together.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.API.BaseURL = v
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	env := &Env{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}

	st, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	env.Storage = st
	env.closers = append(env.closers, st)

	client, err := lms.NewClient(cfg.API.BaseURL,
		lms.WithTimeout(cfg.API.Timeout),
		lms.WithLoginPath(cfg.API.LoginPath),
	)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	env.Client = client

	env.Store = state.NewStore()
	env.Store.Subscribe(func(_ state.State, batch []state.Action) {
		if logger.GetLevel() > zerolog.DebugLevel {
			return
		}
		kinds := make([]string, 0, len(batch))
		for _, a := range batch {
			kinds = append(kinds, string(a.Kind()))
		}
		logger.Debug().Str("component", "store").Strs("actions", kinds).Msg("dispatched")
	})

	env.Session = session.NewManager(client, env.Store, st, logger)
	env.Selection = selection.New(env.Store)
	env.Remote = remote.New(client, env.Store, logger)
	env.Syncer = remote.NewSyncer(env.Store, logger)

	logger.Debug().
		Str("api", client.BaseURL()).
		Str("storage", cfg.Storage.Backend).
		Msg("environment ready")
	return env, nil
}

// Close releases storage and the log file. Later closers run first.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

// Refresh re-syncs the collections shown outside the drill-down views and
// records the outcome on the store. Tasks that need a session skip while
// logged out.
func (e *Env) Refresh(ctx context.Context) error {
	err := e.Syncer.SyncAll(ctx,
		e.Remote.Progress(),
		e.Remote.Achievements(),
		e.Remote.Courses(),
		e.Remote.PublicCourses(),
	)
	e.Store.RecordSync(err)
	return err
}

// Run boots the TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	if env.Config.Session.Resume {
		if _, err := env.Session.Resume(ctx); err != nil && !errors.Is(err, session.ErrNoSession) {
			env.Logger.Warn().Err(err).Msg("session resume failed")
		}
	}

	pollCtx, stop := context.WithCancel(ctx)
	defer stop()

	// Populate the store before the first frame.
	if err := env.Refresh(ctx); err != nil {
		env.Logger.Warn().Err(err).Msg("initial refresh failed")
	}

	var done <-chan struct{}
	if every := env.Config.UI.RefreshInterval; every > 0 {
		done = StartPoller(pollCtx, env.Refresh, every, env.Logger)
	}

	err = ui.Run(ui.Options{
		Context:      ctx,
		Store:        env.Store,
		Session:      env.Session,
		Selection:    env.Selection,
		Remote:       env.Remote,
		Syncer:       env.Syncer,
		Storage:      env.Storage,
		Logger:       env.Logger,
		BaseURL:      env.Client.BaseURL(),
		LogPath:      env.Config.Log.File,
		RefreshEvery: env.Config.UI.RefreshInterval,
	})

	stop()
	if done != nil {
		<-done
	}
	return err
}
