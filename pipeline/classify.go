package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/canopy/canopy"
	"github.com/teranos/canopy/dataset"
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/mapred"
	"github.com/teranos/canopy/sequence"
)

// ClassifyConfig holds the inputs of a classification run
type ClassifyConfig struct {
	Measure       distance.Measure
	Clusters      string
	Input         string
	Output        string
	MinSimilarity float64
	Workers       int
}

// ClassifyResult is the outcome of a classification run
type ClassifyResult struct {
	Canopies    int
	Clustered   int64
	Unclustered int64
}

// ResolveClusterDir accepts either a build output root or its canopies
// directory and returns the directory holding the canopy part files.
func ResolveClusterDir(path string) (string, error) {
	if err := dataset.RequireDir(path); err != nil {
		return "", err
	}
	nested := filepath.Join(path, dataset.CanopiesDir)
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested, nil
	}
	return path, nil
}

// Classify labels every input point with its most similar canonical
// canopy. The canopy set is loaded once and shared read-only by workers.
func Classify(ctx context.Context, job *mapred.Job, cfg ClassifyConfig) (*ClassifyResult, error) {
	log := job.Named("classify")

	if cfg.Measure == nil {
		return nil, errors.WithHint(errors.ErrMeasureUnconfigured, "set measure.kind to levenshtein or tanimoto")
	}
	clusterDir, err := ResolveClusterDir(cfg.Clusters)
	if err != nil {
		return nil, err
	}
	if err := dataset.EnsureAbsent(cfg.Output); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// anything beyond 1 - min similarity can never clear the cutoff
	measure := cfg.Measure.WithCeiling(1 - cfg.MinSimilarity)
	reference := mapred.NewBroadcast(func() (*canopy.Classifier, error) {
		canopies, err := dataset.ReadCanopies(clusterDir)
		if err != nil {
			return nil, err
		}
		return canopy.NewClassifier(measure, canopies, cfg.MinSimilarity)
	})
	classifier, err := reference.Get()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load clusters from %s", clusterDir)
	}

	points, err := dataset.ReadPoints(cfg.Input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read input")
	}

	_, err = mapred.Map(ctx, workers, mapred.Split(points, workers),
		func(ctx context.Context, partition int, in []sequence.Point) ([]struct{}, error) {
			shared, err := reference.Get()
			if err != nil {
				return nil, err
			}
			progress := rate.Sometimes{Interval: 5 * time.Second}

			labels := make([]dataset.Label, 0, len(in))
			for i, p := range in {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
				}
				if m, ok := shared.Classify(p.Seq, job.Counters); ok {
					labels = append(labels, dataset.Label{CanopyID: m.CanopyID, Key: p.Key})
				}
				progress.Do(func() {
					log.Debugw("Classifying", "partition", partition, "points", i+1, "total", len(in))
				})
			}
			return nil, dataset.WriteLabels(cfg.Output, partition, labels)
		})
	if err != nil {
		if rmErr := os.RemoveAll(cfg.Output); rmErr != nil {
			log.Warnw("Failed to clean up output", "path", cfg.Output, "error", rmErr)
		}
		return nil, errors.Wrap(err, "classification")
	}

	res := &ClassifyResult{
		Canopies:    classifier.Len(),
		Clustered:   job.Counters.Get(canopy.CounterPointsClustered),
		Unclustered: job.Counters.Get(canopy.CounterPointsUnclustered),
	}
	log.Infow("Classification complete",
		"canopies", res.Canopies, "clustered", res.Clustered, "unclustered", res.Unclustered)
	return res, nil
}
