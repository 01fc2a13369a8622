package dataset

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SourceKind identifies a dataset source format.
type SourceKind string

const (
	SourceCSV       SourceKind = "csv"
	SourceShapefile SourceKind = "shapefile"
)

// Source is one entry in the dataset manifest.
type Source struct {
	Kind      SourceKind    `yaml:"kind"`
	Path      string        `yaml:"path"`
	Shapefile ShapefileSpec `yaml:",inline"`
}

// Manifest describes where the dataset comes from and how often it is
// refreshed. It is the on-disk counterpart of the snapshot swap model:
// one load of everything listed here produces one snapshot.
type Manifest struct {
	Sources []Source `yaml:"sources"`

	// RefreshInterval is a Go duration string ("24h"). Empty disables
	// periodic refresh.
	RefreshInterval string `yaml:"refresh_interval"`

	refreshEvery time.Duration
}

// RefreshEvery returns the parsed refresh interval; zero means no refresh.
func (m *Manifest) RefreshEvery() time.Duration {
	return m.refreshEvery
}

// ReadManifest parses a YAML dataset manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read manifest %s", path)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse manifest %s", path)
	}
	if len(m.Sources) == 0 {
		return nil, eris.Errorf("dataset: manifest %s lists no sources", path)
	}
	if m.RefreshInterval != "" {
		d, err := time.ParseDuration(m.RefreshInterval)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: manifest %s refresh_interval", path)
		}
		m.refreshEvery = d
	}
	for i, src := range m.Sources {
		switch src.Kind {
		case SourceCSV, SourceShapefile:
		default:
			return nil, eris.Errorf("dataset: manifest source %d has unknown kind %q", i, src.Kind)
		}
		if src.Path == "" {
			return nil, eris.Errorf("dataset: manifest source %d has no path", i)
		}
	}
	return &m, nil
}

// Load reads every source in the manifest and merges the results. CSV
// sources contribute segments and rules; shapefile sources contribute
// geometry-only segments. Segment ordinals are assigned across sources in
// manifest order, so the nearest-segment tie break is stable per manifest.
func (m *Manifest) Load() (*Loaded, error) {
	merged := &Loaded{}

	for _, src := range m.Sources {
		var (
			part *Loaded
			err  error
		)
		switch src.Kind {
		case SourceCSV:
			part, err = LoadCSV(src.Path)
		case SourceShapefile:
			part, err = LoadShapefile(src.Path, src.Shapefile, len(merged.Segments))
		}
		if err != nil {
			return nil, err
		}

		// Re-base ordinals so later sources sort after earlier ones.
		for i := range part.Segments {
			part.Segments[i].Ordinal = len(merged.Segments) + i
		}
		merged.Segments = append(merged.Segments, part.Segments...)
		merged.Rules = append(merged.Rules, part.Rules...)
		merged.SkippedGeometry += part.SkippedGeometry
		merged.SkippedRows += part.SkippedRows
	}

	return merged, nil
}
