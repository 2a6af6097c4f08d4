// Package retention implements the periodic cross-store delete that
// enforces an app's retention horizon (C5, spec.md §4.5).
package retention

import (
	"context"
	"fmt"
	"time"

	"loglite/internal/database/repositories"
	"loglite/internal/search"

	"github.com/pterm/pterm"
)

// BatchSize bounds how many expired ids a single cycle deletes, per
// spec.md §4.5: a throughput knob, not a correctness requirement.
const BatchSize = 10000

// Collector runs on a fixed interval, deleting events whose ts is older
// than retention_days from both the relational store and the index.
// It persists the relational-delete attempt set before deleting from the
// index so a crash mid-cycle can still clean the index on a later cycle
// (spec.md §4.5's required crash-recovery note).
type Collector struct {
	events    repositories.EventRepository
	attempts  repositories.RetentionAttemptRepository
	index     *search.Facade
	interval  time.Duration
	retention time.Duration
	logger    *pterm.Logger
}

func NewCollector(
	events repositories.EventRepository,
	attempts repositories.RetentionAttemptRepository,
	index *search.Facade,
	interval time.Duration,
	retention time.Duration,
	logger *pterm.Logger,
) *Collector {
	return &Collector{
		events:    events,
		attempts:  attempts,
		index:     index,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled, running one cycle immediately and
// then every interval. An in-flight cycle always runs to completion.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runCycle()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCycle()
		}
	}
}

func (c *Collector) runCycle() {
	// Any ids a prior cycle recorded as attempted but never confirmed
	// cleared from the index get retried first, per spec.md §4.5.
	if err := c.retryPending(); err != nil {
		c.logger.Warn("Failed to retry pending retention attempts",
			c.logger.Args("error", err))
	}

	cutoff := time.Now().UTC().Add(-c.retention)

	ids, err := c.events.SelectExpiredIDs(cutoff, BatchSize)
	if err != nil {
		c.logger.WithCaller().Error("Failed to select expired event ids",
			c.logger.Args("error", err))
		return
	}
	if len(ids) == 0 {
		return
	}

	if err := c.deleteSet(ids); err != nil {
		c.logger.WithCaller().Error("Retention cycle failed, will retry next tick",
			c.logger.Args("error", err, "count", len(ids)))
		return
	}

	c.logger.Debug("Retention cycle completed",
		c.logger.Args("deleted", len(ids), "cutoff", cutoff.Format(time.RFC3339)))
}

// deleteSet deletes one id set from the relational store and then from
// the index, recording the attempt before the relational delete so the
// index half can still be finished after a crash (spec.md §4.5).
func (c *Collector) deleteSet(ids []uint64) error {
	if err := c.attempts.Record(ids); err != nil {
		return fmt.Errorf("record retention attempt: %w", err)
	}

	if err := c.events.DeleteByIDs(ids); err != nil {
		return fmt.Errorf("delete relational rows: %w", err)
	}

	if err := c.index.DeleteByIDs(ids); err != nil {
		return fmt.Errorf("delete index documents: %w", err)
	}
	if err := c.index.Commit(); err != nil {
		return fmt.Errorf("commit index deletes: %w", err)
	}

	if err := c.attempts.Clear(ids); err != nil {
		return fmt.Errorf("clear retention attempt: %w", err)
	}

	return nil
}

// retryPending cleans index documents for any event ids a previous
// cycle recorded as relationally deleted but never confirmed cleared
// from the index (the mid-cycle-crash case spec.md §4.5 requires).
func (c *Collector) retryPending() error {
	pending, err := c.attempts.Pending()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	if err := c.index.DeleteByIDs(pending); err != nil {
		return err
	}
	if err := c.index.Commit(); err != nil {
		return err
	}
	return c.attempts.Clear(pending)
}
