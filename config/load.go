package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/canopy/errors"
)

var viperInstance *viper.Viper

// Load reads the configuration from the shared Viper instance
func Load() (*Config, error) {
	return LoadWithViper(GetViper())
}

// GetViper returns the Viper instance so CLI flags can be bound to it
func GetViper() *viper.Viper {
	if viperInstance == nil {
		viperInstance = newViper()
	}
	return viperInstance
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path layered over
// the defaults. Environment variables are not consulted.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// UseFile merges an explicit config file into the shared Viper instance,
// above the discovered files and below flags.
func UseFile(configPath string) error {
	v := GetViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.MergeInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return nil
}

// Reset clears the cached Viper instance (useful for testing)
func Reset() {
	viperInstance = nil
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("CANOPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v, searchPaths())
	return v
}

// searchPaths lists config files from lowest to highest precedence
func searchPaths() []string {
	paths := []string{"/etc/canopy/canopy.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".canopy", "canopy.toml"))
	}
	return append(paths, "canopy.toml")
}

// mergeConfigFiles merges every existing file in order; later files win
func mergeConfigFiles(v *viper.Viper, paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		_ = v.MergeInConfig()
	}
}
