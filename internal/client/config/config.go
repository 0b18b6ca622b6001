package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the TaskKeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the TaskKeeper HTTP API.
//   - TokenFile: where the bearer token is kept between invocations.
//   - RequestTimeout: deadline for a single API call.
type Config struct {
	ServerURL      string
	TokenFile      string
	RequestTimeout time.Duration
}

// DefaultTokenFile returns ~/.taskkeeper/token, or a relative path when the
// home directory cannot be resolved.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".taskkeeper", "token")
	}
	return filepath.Join(home, ".taskkeeper", "token")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.TokenFile = DefaultTokenFile()
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
