package dataset

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/curbside/internal/model"
)

// ShapefileSpec names the attribute fields to read from a centerline
// shapefile. Field matching is case-insensitive.
type ShapefileSpec struct {
	IDField   string `yaml:"id_field"`
	NameField string `yaml:"name_field"`
}

// LoadShapefile reads street-centerline segments from a shapefile. The
// records carry geometry and display attributes only; sweeping rules come
// from the tabular source. Records with missing or unusable geometry are
// skipped and counted, never fatal.
func LoadShapefile(path string, spec ShapefileSpec, startOrdinal int) (*Loaded, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	idIdx, ok := fieldIdx[strings.ToLower(spec.IDField)]
	if !ok {
		return nil, eris.Errorf("dataset: shapefile missing id field %q", spec.IDField)
	}
	nameIdx, hasName := fieldIdx[strings.ToLower(spec.NameField)]

	out := &Loaded{}

	for reader.Next() {
		_, shape := reader.Shape()

		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		if id == "" {
			out.SkippedRows++
			continue
		}

		pl, ok := shape.(*shp.PolyLine)
		if !ok || pl == nil {
			out.SkippedGeometry++
			continue
		}
		ls := polyLineToLineString(pl)
		if ls == nil {
			out.SkippedGeometry++
			continue
		}

		name := ""
		if hasName {
			name = normalizeName(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}

		out.Segments = append(out.Segments, model.Segment{
			ID:       id,
			Corridor: name,
			Active:   true,
			Ordinal:  startOrdinal + len(out.Segments),
			Line:     ls,
		})
	}

	zap.L().Info("shapefile dataset loaded",
		zap.String("component", "dataset.shapefile"),
		zap.Int("segments", len(out.Segments)),
		zap.Int("skipped_geometry", out.SkippedGeometry),
	)

	return out, nil
}

// polyLineToLineString flattens a shapefile PolyLine into a single
// LineString. Multi-part polylines are concatenated in part order; parts
// with fewer than two points are dropped.
func polyLineToLineString(pl *shp.PolyLine) *geom.LineString {
	if pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	flat := make([]float64, 0, len(pl.Points)*2)
	for _, pt := range pl.Points {
		flat = append(flat, pt.X, pt.Y)
	}
	if len(flat) < 4 {
		return nil
	}
	return geom.NewLineStringFlat(geom.XY, flat)
}
