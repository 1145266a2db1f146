package reference

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Provider hands out the current snapshot and rebuilds it on demand. Readers
// always see a fully built snapshot; swaps are atomic.
type Provider struct {
	store  *PostgresStore
	logger *slog.Logger
	snap   atomic.Pointer[Snapshot]
}

// NewProvider builds a provider and loads the initial snapshot.
func NewProvider(ctx context.Context, store *PostgresStore, logger *slog.Logger) (*Provider, error) {
	p := &Provider{store: store, logger: logger}
	if err := p.Reload(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Current returns the live snapshot.
func (p *Provider) Current() *Snapshot {
	return p.snap.Load()
}

// Reload builds a fresh snapshot and swaps it in.
func (p *Provider) Reload(ctx context.Context) error {
	start := time.Now()
	snap, err := p.store.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("reload reference snapshot: %w", err)
	}
	p.snap.Store(snap)
	p.logger.Info("reference snapshot reloaded",
		"sub_tiers", len(snap.SubTiers),
		"offices", len(snap.Offices),
		"zips", len(snap.ZipsCurrent),
		"duration", time.Since(start),
	)
	return nil
}
