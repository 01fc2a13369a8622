package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/config"
	"github.com/sells-group/curbside/internal/dataset"
	"github.com/sells-group/curbside/internal/store"
	"github.com/sells-group/curbside/internal/sweep"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "curbside",
	Short: "Street sweeping curb lookup service",
	Long:  "Resolves a parked car's coordinates to the nearest street segment, the block side it sits on, and the next scheduled sweep, with push reminders the evening before.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// openStore builds the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// loadDataset reads the manifest and publishes the first snapshot.
func loadDataset() (*dataset.Manifest, *sweep.Source, error) {
	m, err := dataset.ReadManifest(cfg.Dataset.Manifest)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	loaded, err := m.Load()
	if err != nil {
		return nil, nil, err
	}

	zap.L().Info("dataset loaded",
		zap.Int("segments", len(loaded.Segments)),
		zap.Int("rules", len(loaded.Rules)),
		zap.Int("skipped_geometry", loaded.SkippedGeometry),
		zap.Int("skipped_rows", loaded.SkippedRows),
		zap.Duration("took", time.Since(start)),
	)

	src := sweep.NewSource(sweep.NewSnapshot(loaded.Segments, loaded.Rules))
	return m, src, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
