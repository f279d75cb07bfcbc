package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// StartPoller calls refresh every interval until ctx is cancelled. Failures
// stretch the wait exponentially; a success resets it. The returned channel
// closes once the goroutine has exited.
func StartPoller(ctx context.Context, refresh func(context.Context) error, interval time.Duration, logger zerolog.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	logger = logger.With().Str("component", "poller").Logger()
	done := make(chan struct{})

	go func() {
		defer close(done)
		timer := time.NewTimer(interval)
		defer timer.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				failures++
				wait := calculateBackoff(failures, interval)
				logger.Warn().Err(err).Int("failures", failures).Dur("retry_in", wait).Msg("refresh failed")
				timer.Reset(wait)
				continue
			}
			if failures > 0 {
				logger.Info().Int("failures", failures).Msg("refresh recovered")
			}
			failures = 0
			timer.Reset(interval)
		}
	}()
	return done
}
