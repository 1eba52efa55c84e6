package pipeline

import (
	"time"

	"github.com/teranos/canopy/dataset"
)

// BuildManifest describes a finished build for MANIFEST.toml
func BuildManifest(runID string, cfg BuildConfig, res *BuildResult, counters map[string]int64) dataset.Manifest {
	m := dataset.Manifest{
		RunID:     runID,
		Kind:      "build",
		Measure:   cfg.Measure.Kind().String(),
		Input:     cfg.Input,
		T1:        cfg.Thresholds.T1,
		T2:        cfg.Thresholds.T2,
		Canopies:  len(res.Canopies),
		CreatedAt: time.Now().UTC(),
		Counters:  counters,
	}
	for _, r := range res.Rounds {
		m.Rounds = append(m.Rounds, dataset.ManifestRound{
			Round:       r.Round,
			T1:          r.Thresholds.T1,
			T2:          r.Thresholds.T2,
			Parallelism: r.Parallelism,
			Canopies:    r.Canopies,
		})
	}
	return m
}

// ClassifyManifest describes a finished classification for MANIFEST.toml
func ClassifyManifest(runID string, cfg ClassifyConfig, res *ClassifyResult, counters map[string]int64) dataset.Manifest {
	return dataset.Manifest{
		RunID:     runID,
		Kind:      "classify",
		Measure:   cfg.Measure.Kind().String(),
		Input:     cfg.Input,
		Canopies:  res.Canopies,
		CreatedAt: time.Now().UTC(),
		Counters:  counters,
	}
}
