// Package session keeps each managed device's state current by polling,
// listening for pushed events, and watching for staleness.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/linkctl/internal/core"
	"github.com/tessro/linkctl/internal/reconcile"
)

// DriverOptions configures the loops run for one device.
type DriverOptions struct {
	PollInterval     time.Duration
	ResubscribeDelay time.Duration
	// StaleCheck is how often the staleness transition is checked.
	StaleCheck time.Duration
	Events     bool
	Logger     *zap.Logger
}

func (o DriverOptions) withDefaults() DriverOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.ResubscribeDelay <= 0 {
		o.ResubscribeDelay = 5 * time.Second
	}
	if o.StaleCheck <= 0 {
		o.StaleCheck = time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Drive runs the poll, event, and staleness loops for one device until ctx
// ends. Transport failures are logged and retried; they never end the loops.
func Drive(ctx context.Context, rec *reconcile.Reconciler, t core.Transport, opts DriverOptions) error {
	opts = opts.withDefaults()
	log := opts.Logger.Named("session").With(zap.String("device", rec.Device().ID))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poll(ctx, rec, t, opts.PollInterval, log)
		return nil
	})
	if opts.Events {
		g.Go(func() error {
			listen(ctx, rec, t, opts.ResubscribeDelay, log)
			return nil
		})
	}
	g.Go(func() error {
		watchStale(ctx, rec, opts.StaleCheck)
		return nil
	})
	return g.Wait()
}

func poll(ctx context.Context, rec *reconcile.Reconciler, t core.Transport, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		PollOnce(ctx, rec, t, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PollOnce fetches one status and merges it. It returns false if the device
// could not be reached.
func PollOnce(ctx context.Context, rec *reconcile.Reconciler, t core.Transport, log *zap.Logger) bool {
	raw, err := t.GetStatus(ctx)
	if err != nil {
		if ctx.Err() == nil && log != nil {
			log.Debug("poll failed", zap.Error(err))
		}
		return false
	}
	rec.Merge(raw)
	return true
}

func listen(ctx context.Context, rec *reconcile.Reconciler, t core.Transport, delay time.Duration, log *zap.Logger) {
	for {
		events, err := t.SubscribeEvents(ctx)
		if err != nil {
			log.Debug("event subscription failed", zap.Error(err))
		} else {
			for raw := range events {
				rec.Merge(raw)
			}
			if ctx.Err() == nil {
				log.Info("event subscription ended, resubscribing", zap.Duration("delay", delay))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func watchStale(ctx context.Context, rec *reconcile.Reconciler, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec.CheckStale()
		}
	}
}
