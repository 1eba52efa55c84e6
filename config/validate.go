package config

import (
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
)

// Validate checks that the configuration is usable for a build or classify run
func (c *Config) Validate() error {
	if _, err := distance.ParseKind(c.Measure.Kind); err != nil {
		return errors.Wrap(err, "measure.kind")
	}

	if c.Clustering.T1 <= 0 || c.Clustering.T1 > 1 {
		return errors.NewInvalidArgumentf("clustering.t1 must be in (0, 1], got %g", c.Clustering.T1)
	}
	if c.Clustering.T2 <= 0 || c.Clustering.T2 > 1 {
		return errors.NewInvalidArgumentf("clustering.t2 must be in (0, 1], got %g", c.Clustering.T2)
	}
	if c.Clustering.T2 > c.Clustering.T1 {
		return errors.NewInvalidArgumentf("clustering.t2 (%g) must be <= clustering.t1 (%g)", c.Clustering.T2, c.Clustering.T1)
	}
	if c.Clustering.Reducers < 1 {
		return errors.NewInvalidArgumentf("clustering.reducers must be >= 1, got %d", c.Clustering.Reducers)
	}
	if c.Clustering.MinObservations < 0 {
		return errors.NewInvalidArgumentf("clustering.min_observations must be >= 0, got %d", c.Clustering.MinObservations)
	}

	if c.Classify.MinSimilarity < 0 || c.Classify.MinSimilarity > 1 {
		return errors.NewInvalidArgumentf("classify.min_similarity must be in [0, 1], got %g", c.Classify.MinSimilarity)
	}
	if c.Classify.Workers < 0 {
		return errors.NewInvalidArgumentf("classify.workers must be >= 0, got %d", c.Classify.Workers)
	}

	return nil
}
