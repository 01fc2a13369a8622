package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/dataset"
	"github.com/sells-group/curbside/internal/db"
	"github.com/sells-group/curbside/internal/store"
)

var loadArchive bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Validate the dataset manifest and report what it yields",
	Long:  "Loads every manifest source, reports segment, rule, and skip counts, and with --archive bulk-copies the dataset into Postgres for offline analysis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m, err := dataset.ReadManifest(cfg.Dataset.Manifest)
		if err != nil {
			return err
		}

		loaded, err := m.Load()
		if err != nil {
			return err
		}

		zap.L().Info("dataset validated",
			zap.Int("segments", len(loaded.Segments)),
			zap.Int("rules", len(loaded.Rules)),
			zap.Int("skipped_geometry", loaded.SkippedGeometry),
			zap.Int("skipped_rows", loaded.SkippedRows),
		)

		if !loadArchive {
			return nil
		}
		return archiveDataset(ctx, loaded)
	},
}

// archiveDataset bulk-copies the loaded dataset into the sweep_data schema.
func archiveDataset(ctx context.Context, loaded *dataset.Loaded) error {
	if cfg.Store.Driver != "postgres" {
		return eris.New("load: --archive requires the postgres store driver")
	}

	pg, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Migrate(ctx); err != nil {
		return err
	}

	segRows := make([][]any, 0, len(loaded.Segments))
	for _, seg := range loaded.Segments {
		line, err := wkt.Marshal(seg.Line)
		if err != nil {
			return eris.Wrapf(err, "load: encode segment %s", seg.ID)
		}
		segRows = append(segRows, []any{
			seg.ID, seg.Corridor, seg.FromCross, seg.ToCross, seg.Active, line,
		})
	}

	n, err := db.CopyFromSchema(ctx, pg.Pool(), "sweep_data", "segments",
		[]string{"segment_id", "corridor", "from_cross", "to_cross", "active", "line_wkt"},
		segRows)
	if err != nil {
		return err
	}
	zap.L().Info("segments archived", zap.Int64("rows", n))

	ruleRows := make([][]any, 0, len(loaded.Rules))
	for _, r := range loaded.Rules {
		ruleRows = append(ruleRows, []any{
			r.SegmentID, string(r.Side), r.Weekday, r.Weeks.String(), r.FromHour, r.ToHour,
		})
	}

	n, err = db.CopyFromSchema(ctx, pg.Pool(), "sweep_data", "rules",
		[]string{"segment_id", "side", "weekday", "weeks", "from_hour", "to_hour"},
		ruleRows)
	if err != nil {
		return err
	}
	zap.L().Info("rules archived", zap.Int64("rows", n))

	return nil
}

func init() {
	loadCmd.Flags().BoolVar(&loadArchive, "archive", false, "bulk-copy the dataset into Postgres")
	rootCmd.AddCommand(loadCmd)
}
