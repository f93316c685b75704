// Package config loads proxy settings from an optional TOML file and
// IMAGE_PROXY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/ironsheep/image-proxy/internal/cache"
	"github.com/ironsheep/image-proxy/internal/imaging"
)

// EnvPrefix is prepended to every environment override, e.g.
// IMAGE_PROXY_CACHE_CAPACITY for cache.capacity.
const EnvPrefix = "IMAGE_PROXY"

// FileName is the config file looked up in the working directory when no
// explicit path is given.
const FileName = "image-proxy"

// Config is the full proxy configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Origin OriginConfig `mapstructure:"origin"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type CacheConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Mode     string `mapstructure:"mode"`
}

type OriginConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes"` // 0 = unlimited
}

type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Quality int    `mapstructure:"quality"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:3000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("cache.capacity", cache.DefaultCapacity)
	v.SetDefault("cache.mode", string(cache.ModeSerialized))
	v.SetDefault("origin.timeout", 30*time.Second)
	v.SetDefault("origin.max_bytes", int64(32<<20))
	v.SetDefault("output.format", string(imaging.JPEG))
	v.SetDefault("output.quality", imaging.DefaultQuality)
	v.SetDefault("log.level", "info")
}

// Load reads the configuration. With an empty path, image-proxy.toml in the
// working directory is used if present; an explicit path must exist.
// Environment variables override file values, which override defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr must not be empty")
	}
	if c.Cache.Capacity < 1 {
		problems = append(problems, "cache.capacity must be at least 1")
	}
	if _, err := cache.ParseMode(c.Cache.Mode); err != nil {
		problems = append(problems, "cache.mode must be serialized or singleflight")
	}
	if c.Origin.Timeout <= 0 {
		problems = append(problems, "origin.timeout must be positive")
	}
	if c.Origin.MaxBytes < 0 {
		problems = append(problems, "origin.max_bytes must be non-negative")
	}
	if _, err := imaging.ParseFormat(c.Output.Format); err != nil {
		problems = append(problems, "output.format must be jpeg, png or gif")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		problems = append(problems, "output.quality must be between 1 and 100")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		problems = append(problems, "log.level must be a zerolog level (debug, info, warn, error)")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// CacheMode returns the validated cache mode.
func (c *Config) CacheMode() cache.Mode {
	m, err := cache.ParseMode(c.Cache.Mode)
	if err != nil {
		return cache.ModeSerialized
	}
	return m
}

// OutputFormat returns the validated output format.
func (c *Config) OutputFormat() imaging.Format {
	f, err := imaging.ParseFormat(c.Output.Format)
	if err != nil {
		return imaging.JPEG
	}
	return f
}

// ApplyLogLevel sets the global zerolog level.
func (c *Config) ApplyLogLevel() {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
