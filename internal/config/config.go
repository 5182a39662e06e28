// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and CRS_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CRS_SERVER_ADDR.
const EnvPrefix = "CRS"

// Pipeline transaction sources.
const (
	SourcePostgres = "postgres"
	SourceMySQL    = "mysql"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Model    ModelConfig    `mapstructure:"model"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	RFM      RFMConfig      `mapstructure:"rfm"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	GinMode         string        `mapstructure:"gin_mode"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Mode   string `mapstructure:"mode"`
	Redact bool   `mapstructure:"redact"`
}

type ModelConfig struct {
	SchemaPath string `mapstructure:"schema_path"`
	ModelPath  string `mapstructure:"model_path"`
}

type StorageConfig struct {
	UseMemory     bool          `mapstructure:"use_memory"`
	PostgresDSN   string        `mapstructure:"postgres_dsn"`
	ClickHouseDSN string        `mapstructure:"clickhouse_dsn"`
	RedisURL      string        `mapstructure:"redis_url"`
	MySQLDSN      string        `mapstructure:"mysql_dsn"`
	MySQLTable    string        `mapstructure:"mysql_table"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type PipelineConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Source   string        `mapstructure:"source"`
	Interval time.Duration `mapstructure:"interval"`
	Lookback time.Duration `mapstructure:"lookback"`
}

type RFMConfig struct {
	Location string `mapstructure:"location"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			GinMode:         "release",
			MaxBodyBytes:    10 << 20,
			ShutdownTimeout: 15 * time.Second,
		},
		Log: LogConfig{Mode: "production", Redact: true},
		Model: ModelConfig{
			SchemaPath: "configs/feature_schema.yaml",
			ModelPath:  "configs/model.yaml",
		},
		Storage: StorageConfig{
			MySQLTable: "transactions",
			CacheTTL:   24 * time.Hour,
		},
		Pipeline: PipelineConfig{
			Source:   SourcePostgres,
			Interval: time.Hour,
			Lookback: 365 * 24 * time.Hour,
		},
		RFM: RFMConfig{Location: "UTC"},
	}
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.gin_mode", d.Server.GinMode)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.redact", d.Log.Redact)
	v.SetDefault("model.schema_path", d.Model.SchemaPath)
	v.SetDefault("model.model_path", d.Model.ModelPath)
	v.SetDefault("storage.use_memory", d.Storage.UseMemory)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.clickhouse_dsn", d.Storage.ClickHouseDSN)
	v.SetDefault("storage.redis_url", d.Storage.RedisURL)
	v.SetDefault("storage.mysql_dsn", d.Storage.MySQLDSN)
	v.SetDefault("storage.mysql_table", d.Storage.MySQLTable)
	v.SetDefault("storage.cache_ttl", d.Storage.CacheTTL)
	v.SetDefault("pipeline.enabled", d.Pipeline.Enabled)
	v.SetDefault("pipeline.source", d.Pipeline.Source)
	v.SetDefault("pipeline.interval", d.Pipeline.Interval)
	v.SetDefault("pipeline.lookback", d.Pipeline.Lookback)
	v.SetDefault("rfm.location", d.RFM.Location)
}

// Load reads configuration. configPath may be empty. envPath defaults to
// ".env"; a missing env file is ignored. Existing environment variables win
// over the env file.
func Load(configPath, envPath string) (*Config, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envPath, err)
	}

	v := viper.New()
	setDefaults(v, Default())

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.Model.SchemaPath) == "" {
		problems = append(problems, "model.schema_path is required")
	}
	if strings.TrimSpace(c.Model.ModelPath) == "" {
		problems = append(problems, "model.model_path is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be positive")
	}
	if _, err := time.LoadLocation(c.RFM.Location); err != nil {
		problems = append(problems, fmt.Sprintf("rfm.location %q: %v", c.RFM.Location, err))
	}
	if c.Pipeline.Enabled {
		if c.Pipeline.Interval <= 0 {
			problems = append(problems, "pipeline.interval must be positive")
		}
		if c.Pipeline.Lookback <= 0 {
			problems = append(problems, "pipeline.lookback must be positive")
		}
		switch c.Pipeline.Source {
		case SourcePostgres:
			if !c.Storage.UseMemory && c.Storage.PostgresDSN == "" {
				problems = append(problems, "storage.postgres_dsn is required for the postgres pipeline source")
			}
		case SourceMySQL:
			if c.Storage.MySQLDSN == "" {
				problems = append(problems, "storage.mysql_dsn is required for the mysql pipeline source")
			}
		default:
			problems = append(problems, fmt.Sprintf("pipeline.source %q must be postgres or mysql", c.Pipeline.Source))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the configured zone for naive timestamps.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.RFM.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
