// Package config loads application configuration from config.yaml, .env,
// and CURBSIDE_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Dataset DatasetConfig `yaml:"dataset" mapstructure:"dataset"`
	Region  RegionConfig  `yaml:"region" mapstructure:"region"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Notify  NotifyConfig  `yaml:"notify" mapstructure:"notify"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DatasetConfig points at the dataset manifest.
type DatasetConfig struct {
	Manifest string `yaml:"manifest" mapstructure:"manifest"`
}

// RegionConfig pins the operational timezone. Sweep schedules are civil
// dates in this zone.
type RegionConfig struct {
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
}

// Location resolves the configured timezone.
func (r RegionConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", r.Timezone)
	}
	return loc, nil
}

// CacheConfig configures the optional Redis result cache. An empty Addr
// disables it.
type CacheConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// NotifyConfig configures the reminder batch.
type NotifyConfig struct {
	SimplePushKey string `yaml:"simplepush_key" mapstructure:"simplepush_key"`
	IntervalMins  int    `yaml:"interval_mins" mapstructure:"interval_mins"`
	Concurrency   int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// Interval returns the batch polling interval.
func (n NotifyConfig) Interval() time.Duration {
	return time.Duration(n.IntervalMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file, and environment.
func Load() (*Config, error) {
	// Local development secrets; absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CURBSIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "curbside.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("dataset.manifest", "dataset.yaml")
	v.SetDefault("region.timezone", "America/Los_Angeles")
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl_hours", 12)
	v.SetDefault("notify.simplepush_key", "")
	v.SetDefault("notify.interval_mins", 60)
	v.SetDefault("notify.concurrency", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
