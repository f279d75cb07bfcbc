package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/five82/aula/internal/state"
)

// Dispatcher is satisfied by *state.Store.
type Dispatcher interface {
	Dispatch(actions ...state.Action) error
}

// Syncer runs tasks and dispatches their results.
type Syncer struct {
	store  Dispatcher
	logger zerolog.Logger
}

// NewSyncer returns a Syncer dispatching into store.
func NewSyncer(store Dispatcher, logger zerolog.Logger) *Syncer {
	return &Syncer{store: store, logger: logger.With().Str("component", "sync").Logger()}
}

// Sync runs task and dispatches its action, if any, exactly once. The
// returned error is the task's fetch error or a dispatch failure. A skipped
// task returns nil.
func (s *Syncer) Sync(ctx context.Context, task Task) (Result, error) {
	res := task(ctx)
	if err := s.Apply(res); err != nil {
		return res, err
	}
	return res, res.Err
}

// Apply dispatches a result produced elsewhere, such as a task the TUI ran
// as a command. Fetch errors in res are not returned; they were already
// logged by the task.
func (s *Syncer) Apply(res Result) error {
	if res.Action == nil {
		return nil
	}
	if err := s.store.Dispatch(res.Action); err != nil {
		s.logger.Error().Err(err).Str("task", res.Name).Msg("dispatch failed")
		return fmt.Errorf("apply %s: %w", res.Name, err)
	}
	return nil
}

// SyncAll runs tasks concurrently. Each result is dispatched as it arrives,
// so lists fill in independently. All tasks run to completion; the joined
// errors are returned.
func (s *Syncer) SyncAll(ctx context.Context, tasks ...Task) error {
	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			_, errs[i] = s.Sync(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
