package dataset

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/sweep"
)

// Refresher periodically reloads the manifest sources and publishes the
// result as a new snapshot. A failed reload logs and keeps the previous
// snapshot; readers never observe a partially-loaded dataset.
type Refresher struct {
	manifest *Manifest
	source   *sweep.Source
}

// NewRefresher wires a manifest to the snapshot source it should feed.
func NewRefresher(m *Manifest, src *sweep.Source) *Refresher {
	return &Refresher{manifest: m, source: src}
}

// Reload performs one load-and-swap cycle.
func (r *Refresher) Reload() error {
	loaded, err := r.manifest.Load()
	if err != nil {
		return err
	}
	snap := sweep.NewSnapshot(loaded.Segments, loaded.Rules)
	r.source.Swap(snap)

	zap.L().Info("dataset snapshot published",
		zap.String("component", "dataset.refresher"),
		zap.Int("segments", len(loaded.Segments)),
		zap.Int("rules", len(loaded.Rules)),
	)
	return nil
}

// Run reloads on the manifest's interval until ctx is cancelled. It returns
// immediately when the manifest disables refresh.
func (r *Refresher) Run(ctx context.Context) {
	every := r.manifest.RefreshEvery()
	if every <= 0 {
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Reload(); err != nil {
				zap.L().Error("dataset refresh failed, keeping previous snapshot",
					zap.String("component", "dataset.refresher"),
					zap.Error(err),
				)
			}
		}
	}
}
