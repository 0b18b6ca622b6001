package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
	"github.com/dmitrijs2005/taskkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the server config file. Durations accept
// strings such as "15m" or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	RequestTimeout        timex.Duration `json:"request_timeout"`
	BcryptCost            int            `json:"bcrypt_cost"`
	MaxOpenConns          int            `json:"max_open_conns"`
	LogLevel              string         `json:"log_level"`
	BypassPaths           []string       `json:"bypass_paths"`
	AllowedOrigins        []string       `json:"allowed_origins"`
}

// parseJson overlays values from the file named by -c / -config. Keys that
// are absent from the file leave the current value untouched. An unreadable
// or invalid file panics, as startup cannot continue.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.applyTo(config)
}

func (c *JsonConfig) applyTo(config *Config) {
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MaxOpenConns != 0 {
		config.MaxOpenConns = c.MaxOpenConns
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.BypassPaths != nil {
		config.BypassPaths = c.BypassPaths
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
}
