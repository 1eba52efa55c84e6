package config

import "github.com/spf13/viper"

// Default values, also used as CLI flag defaults
const (
	DefaultMeasure         = "levenshtein"
	DefaultT1              = 0.25
	DefaultT2              = 0.15
	DefaultMinObservations = 1
	DefaultReducers        = 1
	DefaultMinSimilarity   = 0.0
	DefaultDatabasePath    = "canopy.db"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("measure.kind", DefaultMeasure)

	v.SetDefault("clustering.t1", DefaultT1)
	v.SetDefault("clustering.t2", DefaultT2)
	v.SetDefault("clustering.min_observations", DefaultMinObservations)
	v.SetDefault("clustering.reducers", DefaultReducers)

	v.SetDefault("classify.min_similarity", DefaultMinSimilarity)
	v.SetDefault("classify.workers", 0)

	v.SetDefault("paths.input", "")
	v.SetDefault("paths.output", "")
	v.SetDefault("paths.clusters", "")
	v.SetDefault("paths.classified", "")

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("metrics.textfile", "")
}
