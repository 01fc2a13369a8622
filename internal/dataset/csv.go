// Package dataset loads street segments and sweeping rules from tabular and
// shapefile sources into immutable sweep snapshots.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/model"
)

// Loaded is the output of a dataset load: the parsed collections plus
// skip accounting for reporting.
type Loaded struct {
	Segments []model.Segment
	Rules    []model.SweepingRule

	// SkippedGeometry counts rows dropped for missing or malformed WKT.
	// A bad row never aborts the load.
	SkippedGeometry int

	// SkippedRows counts rows dropped for other reasons (bad side label,
	// unparsable hours or week flags).
	SkippedRows int
}

// csvColumns are the header names the sweeping-schedule export must carry.
// Matching is case-insensitive.
var csvColumns = []string{
	"cnn", "corridor", "limits", "blockside", "weekday",
	"week1", "week2", "week3", "week4", "week5",
	"fromhour", "tohour", "line",
}

// LoadCSV reads a street-sweeping schedule CSV. Each row carries both the
// segment attributes and one scheduling rule; segments repeated across rows
// (one per side/weekday combination) are deduplicated on first sight, which
// also fixes their tie-break ordinal.
func LoadCSV(path string) (*Loaded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV parses schedule rows from r. See LoadCSV.
func ParseCSV(r io.Reader) (*Loaded, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns {
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("dataset: csv missing column %q", col)
		}
	}
	activeIdx, hasActive := idx["active"]

	log := zap.L().With(zap.String("component", "dataset.csv"))

	out := &Loaded{}
	seen := make(map[string]bool)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}

		field := func(name string) string {
			i := idx[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		id := field("cnn")
		if id == "" {
			out.SkippedRows++
			continue
		}

		if !seen[id] {
			lineWKT := field("line")
			ls, gerr := parseLineWKT(lineWKT)
			if gerr != nil {
				// Malformed geometry: report the row, keep loading.
				log.Warn("skipping row with malformed geometry",
					zap.String("cnn", id),
					zap.Error(gerr),
				)
				out.SkippedGeometry++
				continue
			}

			active := true
			if hasActive && activeIdx < len(rec) {
				active = parseFlag(strings.TrimSpace(rec[activeIdx]))
			}

			fromCross, toCross := splitLimits(field("limits"))
			out.Segments = append(out.Segments, model.Segment{
				ID:        id,
				Corridor:  normalizeName(field("corridor")),
				FromCross: fromCross,
				ToCross:   toCross,
				Active:    active,
				Ordinal:   len(out.Segments),
				Line:      ls,
			})
			seen[id] = true
		}

		rule, ok := parseRule(id, field)
		if !ok {
			out.SkippedRows++
			continue
		}
		out.Rules = append(out.Rules, rule)
	}

	log.Info("csv dataset loaded",
		zap.Int("segments", len(out.Segments)),
		zap.Int("rules", len(out.Rules)),
		zap.Int("skipped_geometry", out.SkippedGeometry),
		zap.Int("skipped_rows", out.SkippedRows),
	)

	return out, nil
}

// parseRule assembles the scheduling rule carried by one CSV row.
func parseRule(segmentID string, field func(string) string) (model.SweepingRule, bool) {
	side := model.Side(strings.ReplaceAll(field("blockside"), " ", ""))
	if !side.Valid() {
		return model.SweepingRule{}, false
	}

	weekday := field("weekday")
	if weekday == "" {
		return model.SweepingRule{}, false
	}

	var weeks [5]bool
	for i := 0; i < 5; i++ {
		weeks[i] = parseFlag(field("week" + string('1'+rune(i))))
	}

	fromHour, err1 := strconv.Atoi(field("fromhour"))
	toHour, err2 := strconv.Atoi(field("tohour"))
	if err1 != nil || err2 != nil {
		return model.SweepingRule{}, false
	}

	return model.SweepingRule{
		SegmentID: segmentID,
		Side:      side,
		Weekday:   weekday,
		Weeks:     model.NewWeekMask(weeks),
		FromHour:  fromHour,
		ToHour:    toHour,
	}, true
}

// parseLineWKT parses a LINESTRING and validates the vertex invariant.
func parseLineWKT(s string) (*geom.LineString, error) {
	if s == "" {
		return nil, eris.New("dataset: empty geometry")
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: parse WKT")
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return nil, eris.Errorf("dataset: geometry is %T, want LINESTRING", g)
	}
	if ls.NumCoords() < 2 {
		return nil, eris.New("dataset: linestring has fewer than 2 vertices")
	}
	return ls, nil
}

// splitLimits splits the source "FROM ST - TO ST" bounds column.
func splitLimits(limits string) (string, string) {
	parts := strings.SplitN(limits, "-", 2)
	from := normalizeName(strings.TrimSpace(parts[0]))
	to := ""
	if len(parts) == 2 {
		to = normalizeName(strings.TrimSpace(parts[1]))
	}
	return from, to
}

// parseFlag reads the dataset's loose boolean encodings ("1", "Y", "true").
func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "t":
		return true
	}
	return false
}
