package augment

import "github.com/hazyhaar/cadkeys/augment/internal/config"

// Config is the cadkeys configuration. Aliased so callers outside the
// package tree can load and adjust it.
type Config = config.Config

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
