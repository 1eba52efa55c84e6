package dataset

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	gotoml "github.com/pelletier/go-toml/v2"

	"github.com/teranos/canopy/errors"
)

// Manifest describes a finished build or classify output
type Manifest struct {
	RunID     string           `toml:"run_id"`
	Kind      string           `toml:"kind"`
	Measure   string           `toml:"measure"`
	Input     string           `toml:"input"`
	T1        float64          `toml:"t1"`
	T2        float64          `toml:"t2"`
	Canopies  int              `toml:"canopies"`
	CreatedAt time.Time        `toml:"created_at"`
	Rounds    []ManifestRound  `toml:"rounds"`
	Counters  map[string]int64 `toml:"counters"`
}

// ManifestRound records one clustering round
type ManifestRound struct {
	Round       int     `toml:"round"`
	T1          float64 `toml:"t1"`
	T2          float64 `toml:"t2"`
	Parallelism int     `toml:"parallelism"`
	Canopies    int     `toml:"canopies"`
}

// WriteManifest writes MANIFEST.toml at the root of dir
func WriteManifest(dir string, m Manifest) error {
	data, err := gotoml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "failed to marshal manifest")
	}
	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadManifest reads MANIFEST.toml from dir
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrapf(errors.ErrNotFound, "manifest %s", path)
	}

	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return &m, nil
}
