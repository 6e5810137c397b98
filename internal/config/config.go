package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STOCKPIPE_SINK_TYPE.
const EnvPrefix = "STOCKPIPE"

// DefaultPath is used when neither -config nor CONFIG_PATH is given.
const DefaultPath = "configs/pipeline.yaml"

// Sink types.
const (
	SinkNoop     = "noop"
	SinkRedis    = "redis"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
)

// Key modes.
const (
	KeyFixed = "fixed"
	KeyDate  = "date"
)

// Config holds all pipeline configuration.
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Sink    SinkConfig    `yaml:"sink" envconfig:"SINK"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputConfig locates the source file. Path is opaque: a local path or an http(s) URL.
type InputConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// SinkConfig selects and configures the store that receives the aggregation.
type SinkConfig struct {
	Type     string         `yaml:"type" validate:"oneof=noop redis sqlite postgres"`
	Key      string         `yaml:"key" validate:"required"`
	KeyMode  string         `yaml:"key_mode" split_words:"true" validate:"oneof=fixed date"`
	Timeout  time.Duration  `yaml:"timeout" validate:"gt=0"`
	Redis    RedisConfig    `yaml:"redis" envconfig:"REDIS"`
	SQLite   SQLiteConfig   `yaml:"sqlite" envconfig:"SQLITE"`
	Postgres PostgresConfig `yaml:"postgres" envconfig:"POSTGRES"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"gte=0"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Load reads .env, then the YAML file at path, then STOCKPIPE_* environment
// overrides, and finally fills defaults. Missing .env and YAML files are not errors.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sink.Type == "" {
		c.Sink.Type = SinkNoop
	}
	if c.Sink.Key == "" {
		c.Sink.Key = "stocks:max_high"
	}
	if c.Sink.KeyMode == "" {
		c.Sink.KeyMode = KeyFixed
	}
	if c.Sink.Timeout == 0 {
		c.Sink.Timeout = 10 * time.Second
	}
	if c.Sink.Redis.Addr == "" {
		c.Sink.Redis.Addr = "localhost:6379"
	}
	if c.Sink.SQLite.Path == "" {
		c.Sink.SQLite.Path = "data/pipeline.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	c.Sink.Type = strings.ToLower(c.Sink.Type)
	c.Logging.Level = strings.ToLower(c.Logging.Level)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the settings required by the chosen sink.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Sink.Type {
	case SinkRedis:
		if c.Sink.Redis.Addr == "" {
			return fmt.Errorf("invalid config: sink.redis.addr is required for the redis sink")
		}
	case SinkSQLite:
		if c.Sink.SQLite.Path == "" {
			return fmt.Errorf("invalid config: sink.sqlite.path is required for the sqlite sink")
		}
	case SinkPostgres:
		if c.Sink.Postgres.DSN == "" {
			return fmt.Errorf("invalid config: sink.postgres.dsn is required for the postgres sink")
		}
	}
	return nil
}
