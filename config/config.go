// Package config loads canopy's configuration from defaults, TOML files,
// environment variables and CLI flags, in increasing precedence.
package config

// Config represents the complete canopy configuration
type Config struct {
	Measure    MeasureConfig    `mapstructure:"measure" toml:"measure" json:"measure" yaml:"measure"`
	Clustering ClusteringConfig `mapstructure:"clustering" toml:"clustering" json:"clustering" yaml:"clustering"`
	Classify   ClassifyConfig   `mapstructure:"classify" toml:"classify" json:"classify" yaml:"classify"`
	Paths      PathsConfig      `mapstructure:"paths" toml:"paths" json:"paths" yaml:"paths"`
	Database   DatabaseConfig   `mapstructure:"database" toml:"database" json:"database" yaml:"database"`
	Metrics    MetricsConfig    `mapstructure:"metrics" toml:"metrics" json:"metrics" yaml:"metrics"`
}

// MeasureConfig selects the sequence distance measure
type MeasureConfig struct {
	Kind string `mapstructure:"kind" toml:"kind" json:"kind" yaml:"kind"` // levenshtein or tanimoto
}

// ClusteringConfig holds the canopy build parameters.
// T1 and T2 are the final thresholds reached by the last round; T2 <= T1.
type ClusteringConfig struct {
	T1              float64 `mapstructure:"t1" toml:"t1" json:"t1" yaml:"t1"`
	T2              float64 `mapstructure:"t2" toml:"t2" json:"t2" yaml:"t2"`
	MinObservations int64   `mapstructure:"min_observations" toml:"min_observations" json:"min_observations" yaml:"min_observations"`
	Reducers        int     `mapstructure:"reducers" toml:"reducers" json:"reducers" yaml:"reducers"`
}

// ClassifyConfig holds the classification parameters
type ClassifyConfig struct {
	MinSimilarity float64 `mapstructure:"min_similarity" toml:"min_similarity" json:"min_similarity" yaml:"min_similarity"`
	Workers       int     `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"` // 0 = one per CPU
}

// PathsConfig holds dataset locations
type PathsConfig struct {
	Input      string `mapstructure:"input" toml:"input" json:"input" yaml:"input"`
	Output     string `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Clusters   string `mapstructure:"clusters" toml:"clusters" json:"clusters" yaml:"clusters"`
	Classified string `mapstructure:"classified" toml:"classified" json:"classified" yaml:"classified"`
}

// DatabaseConfig configures the SQLite run ledger
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// MetricsConfig configures counter export
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" toml:"textfile" json:"textfile" yaml:"textfile"` // empty = no export
}
