// Package config loads msm settings from an optional YAML file, MSM_*
// environment variables and built-in defaults, in that order of precedence
// (flags bound by the CLI override all three).
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"` // empty: stderr only
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type DecodeConfig struct {
	CaptureRaw    bool `mapstructure:"capture_raw"`
	MaxGridPoints int  `mapstructure:"max_grid_points"`
}

type ArchiveConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Dir       string        `mapstructure:"dir"`
	FileTypes []string      `mapstructure:"file_types"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // node_exporter textfile path; empty disables
}

type LabelsConfig struct {
	File string `mapstructure:"file"` // YAML label overrides
}

// Config is the full settings tree.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Decode  DecodeConfig  `mapstructure:"decode"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Labels  LabelsConfig  `mapstructure:"labels"`
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("decode.capture_raw", false)
	v.SetDefault("decode.max_grid_points", 1<<22)
	v.SetDefault("archive.base_url", "http://database.rish.kyoto-u.ac.jp/arch/jmadata/data/gpv/original/")
	v.SetDefault("archive.timeout", 10*time.Minute)
	v.SetDefault("archive.dir", "msm")
	v.SetDefault("archive.file_types", []string{
		"Lsurf_FH00-15", "Lsurf_FH16-33", "Lsurf_FH34-39",
		"L-pall_FH00-15", "L-pall_FH18-33", "L-pall_FH36-39",
	})
	v.SetDefault("batch.workers", 4)

	v.SetEnvPrefix("MSM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and unmarshals the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Decode.MaxGridPoints <= 0 {
		return errors.Errorf("decode.max_grid_points must be positive, got %d", c.Decode.MaxGridPoints)
	}
	if c.Batch.Workers <= 0 {
		return errors.Errorf("batch.workers must be positive, got %d", c.Batch.Workers)
	}
	return nil
}
