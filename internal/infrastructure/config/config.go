package config

import (
	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Block store
	BlockCapacity int    `env:"BLOCK_CAPACITY" envDefault:"10000"`
	StoreDir      string `env:"STORE_DIR"      envDefault:""`

	// Stream pipeline
	ChannelBuffer int `env:"CHANNEL_BUFFER" envDefault:"1024"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Metrics endpoint (optional - leave empty to disable)
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
