// Package cache maintains the periodically refreshed in-memory snapshot of
// the full module graph.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/models"
)

// RefreshFunc is called after each successful refresh with the snapshot that
// was just published.
type RefreshFunc func(*models.Snapshot)

// Cache holds the latest known full snapshot of the graph. The snapshot
// reference is swapped atomically, so concurrent readers observe either the
// entirely old or the entirely new snapshot, never a mix. Published
// snapshots are never mutated.
type Cache struct {
	store     graphstore.Store
	logger    *slog.Logger
	onRefresh RefreshFunc

	current atomic.Pointer[models.Snapshot]
}

// New creates a cache over the given store. onRefresh may be nil.
func New(store graphstore.Store, logger *slog.Logger, onRefresh RefreshFunc) *Cache {
	return &Cache{store: store, logger: logger, onRefresh: onRefresh}
}

// Initialize performs the one synchronous full fetch the process needs
// before it may start serving. An error here is fatal to startup.
func (c *Cache) Initialize(ctx context.Context) error {
	snap, err := c.store.FetchGraph(ctx)
	if err != nil {
		return fmt.Errorf("initial graph load: %w", err)
	}
	c.current.Store(snap)
	c.logger.Info("graph cache loaded",
		slog.Int("nodes", len(snap.Nodes)),
		slog.Int("edges", len(snap.Edges)))
	return nil
}

// Run refreshes the snapshot on a fixed interval until ctx is cancelled.
// After the initial load a failed refresh is never fatal: it is logged and
// the previous snapshot keeps serving until the next tick.
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("graph refresh loop started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("graph refresh loop stopped")
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh fetches a new snapshot and swaps it in. Failure leaves the
// current snapshot untouched.
func (c *Cache) Refresh(ctx context.Context) {
	snap, err := c.store.FetchGraph(ctx)
	if err != nil {
		c.logger.Warn("graph refresh failed, keeping previous snapshot",
			slog.String("error", err.Error()))
		return
	}
	c.current.Store(snap)
	c.logger.Debug("graph cache refreshed",
		slog.Int("nodes", len(snap.Nodes)),
		slog.Int("edges", len(snap.Edges)))
	if c.onRefresh != nil {
		c.onRefresh(snap)
	}
}

// Current returns the latest published snapshot without blocking. It is nil
// only before Initialize has succeeded.
func (c *Cache) Current() *models.Snapshot {
	return c.current.Load()
}
