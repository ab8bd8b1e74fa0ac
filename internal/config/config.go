// Package config loads go-zbd settings from a config file, the environment
// and defaults, in that order of precedence after command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds configuration for zoned device management.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Report   ReportConfig   `mapstructure:"report"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Dump     DumpConfig     `mapstructure:"dump"`
}

// LogConfig selects the logger level and encoding.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ReportConfig tunes zone reporting.
type ReportConfig struct {
	// ChunkZones is the number of zones requested per report query.
	ChunkZones uint32 `mapstructure:"chunk_zones"`
}

// TransferConfig tunes zone data copies during dump and restore.
type TransferConfig struct {
	BufferSize int  `mapstructure:"buffer_size"`
	Direct     bool `mapstructure:"direct"`
}

// DumpConfig sets where dump files are written.
type DumpConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// Defaults.
const (
	DefaultChunkZones = 8192
	DefaultBufferSize = 1024 * 1024
)

// Load reads configuration. An explicit configFile must exist; otherwise
// zbd-config.yaml is searched for in the usual places and may be absent.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("zbd-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.zbd")
		v.AddConfigPath("/etc/zbd")
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("report.chunk_zones", DefaultChunkZones)
	v.SetDefault("transfer.buffer_size", DefaultBufferSize)
	v.SetDefault("transfer.direct", true)
	v.SetDefault("dump.dir", ".")
	v.SetDefault("dump.prefix", "")

	v.SetEnvPrefix("ZBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Report.ChunkZones == 0 || c.Report.ChunkZones > DefaultChunkZones {
		return fmt.Errorf("report.chunk_zones must be between 1 and %d, got %d",
			DefaultChunkZones, c.Report.ChunkZones)
	}
	if c.Transfer.BufferSize <= 0 || c.Transfer.BufferSize%4096 != 0 {
		return fmt.Errorf("transfer.buffer_size must be a positive multiple of 4096, got %d",
			c.Transfer.BufferSize)
	}
	return nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info"},
		Report:   ReportConfig{ChunkZones: DefaultChunkZones},
		Transfer: TransferConfig{BufferSize: DefaultBufferSize, Direct: true},
		Dump:     DumpConfig{Dir: "."},
	}
}
