// Package maintenance runs the periodic background jobs of the server: the
// liveness heartbeat and the purge of long soft-deleted records.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/metrics"
)

// Purger is implemented by every repository with purgeable rows.
type Purger interface {
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)
}

// Target is one purgeable entity. Targets are purged in order, so entities
// whose rows are freed by an earlier purge belong after it.
type Target struct {
	Entity string
	Purger Purger
}

// PoolStats reports total, idle and acquired database connections.
type PoolStats func() (total, idle, acquired int32)

type Options struct {
	PurgeAfter        time.Duration
	PurgeInterval     time.Duration
	HeartbeatInterval time.Duration
	// PoolStats is sampled on every heartbeat when set.
	PoolStats PoolStats
	// Sweep drops idle per-client state, such as rate limiters, on every
	// heartbeat when set. It returns how many entries were removed.
	Sweep func() int
}

// Result is the outcome of purging one target.
type Result struct {
	Entity string
	Rows   int64
	DryRun bool
}

type Runner struct {
	tx      db.TxRunner
	targets []Target
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

func NewRunner(tx db.TxRunner, targets []Target, opts Options, logger zerolog.Logger) *Runner {
	return &Runner{
		tx:      tx,
		targets: targets,
		opts:    opts,
		logger:  logger.With().Str("component", "maintenance").Logger(),
		now:     time.Now,
	}
}

// Run ticks the heartbeat and the purge until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if r.opts.HeartbeatInterval <= 0 || r.opts.PurgeInterval <= 0 {
		return fmt.Errorf("maintenance intervals must be positive")
	}

	heartbeat := time.NewTicker(r.opts.HeartbeatInterval)
	defer heartbeat.Stop()
	purge := time.NewTicker(r.opts.PurgeInterval)
	defer purge.Stop()

	r.logger.Info().
		Dur("heartbeat_interval", r.opts.HeartbeatInterval).
		Dur("purge_interval", r.opts.PurgeInterval).
		Dur("purge_after", r.opts.PurgeAfter).
		Msg("maintenance started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("maintenance stopped")
			return nil
		case <-heartbeat.C:
			r.Heartbeat()
		case <-purge.C:
			if _, err := r.PurgeOnce(ctx, false); err != nil {
				r.logger.Error().Err(err).Msg("purge failed")
			}
		}
	}
}

func (r *Runner) Heartbeat() {
	metrics.RecordHeartbeat()
	ev := r.logger.Debug()
	if r.opts.PoolStats != nil {
		total, idle, acquired := r.opts.PoolStats()
		metrics.SetPoolConns(total, idle, acquired)
		ev = ev.Int32("db_conns", total).Int32("db_idle", idle)
	}
	if r.opts.Sweep != nil {
		ev = ev.Int("swept", r.opts.Sweep())
	}
	ev.Msg("heartbeat")
}

// PurgeOnce hard-deletes rows soft-deleted longer than PurgeAfter ago. Each
// target runs in its own transaction; a failing target does not stop the
// rest. With dryRun the rows are only counted.
func (r *Runner) PurgeOnce(ctx context.Context, dryRun bool) ([]Result, error) {
	if r.opts.PurgeAfter <= 0 {
		return nil, fmt.Errorf("purge age must be positive, got %s", r.opts.PurgeAfter)
	}
	cutoff := r.now().Add(-r.opts.PurgeAfter)

	var (
		results []Result
		errs    []error
	)
	for _, t := range r.targets {
		var n int64
		err := r.tx.InTx(ctx, func(ctx context.Context) error {
			var err error
			if dryRun {
				n, err = t.Purger.CountPurgeable(ctx, cutoff)
			} else {
				n, err = t.Purger.PurgeDeleted(ctx, cutoff)
			}
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", t.Entity, err))
			continue
		}
		if !dryRun {
			metrics.RecordPurged(t.Entity, n)
		}
		results = append(results, Result{Entity: t.Entity, Rows: n, DryRun: dryRun})
		if n > 0 || dryRun {
			r.logger.Info().Str("entity", t.Entity).Int64("rows", n).Bool("dry_run", dryRun).
				Time("cutoff", cutoff).Msg("purged soft-deleted rows")
		}
	}
	return results, errors.Join(errs...)
}
