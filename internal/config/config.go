package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to environment overrides, e.g. APP_DATABASE_HOST.
const EnvPrefix = "APP"

// Config holds all configuration for our application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Store      StoreConfig      `mapstructure:"store"`
	Database   DatabaseConfig   `mapstructure:"database"`
	DynamoDB   DynamoDBConfig   `mapstructure:"dynamodb"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	Kinesis    KinesisConfig    `mapstructure:"kinesis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// StoreConfig selects the key-range backend: memory, postgres or dynamodb.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Root   string `mapstructure:"root"`
}

type DatabaseConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Name              string `mapstructure:"name"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"`
}

// DSN builds a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.ConnectionTimeout,
	)
}

type DynamoDBConfig struct {
	Table           string `mapstructure:"table"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	MarkerCacheSize int    `mapstructure:"marker_cache_size"`
}

type ClassifierConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// IngestConfig configures the streaming loop. Source is kinesis or none.
type IngestConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Source     string        `mapstructure:"source"`
	Group      string        `mapstructure:"group"`
	Workers    int           `mapstructure:"workers"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type KinesisConfig struct {
	Stream       string        `mapstructure:"stream"`
	ShardID      string        `mapstructure:"shard_id"`
	Region       string        `mapstructure:"region"`
	Endpoint     string        `mapstructure:"endpoint"`
	StartAt      string        `mapstructure:"start_at"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type CacheConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
//
// ${VAR} references in the file are expanded first. Values missing from the
// file fall back to defaults, and APP_<SECTION>_<KEY> variables override
// both. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		var rawConfig map[string]interface{}
		if err := yaml.Unmarshal([]byte(expanded), &rawConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
		}
		if err := v.MergeConfigMap(rawConfig); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "dynamodb":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == "dynamodb" && c.DynamoDB.Table == "" {
		return fmt.Errorf("dynamodb.table is required for the dynamodb driver")
	}
	if c.Ingest.Enabled && c.Ingest.Source == "kinesis" && (c.Kinesis.Stream == "" || c.Kinesis.ShardID == "") {
		return fmt.Errorf("kinesis.stream and kinesis.shard_id are required when ingesting from kinesis")
	}
	return nil
}

// NewLogger builds the application logger from the logging section.
func (l LoggingConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if l.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 9090)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.root", "SmartMeter/users")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "meterwatch")
	v.SetDefault("database.user", "meterwatch")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.connection_timeout", 5)

	v.SetDefault("dynamodb.table", "")
	v.SetDefault("dynamodb.region", "")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.marker_cache_size", 4096)

	v.SetDefault("classifier.url", "http://localhost:5000")
	v.SetDefault("classifier.timeout", "5s")

	v.SetDefault("ingest.enabled", false)
	v.SetDefault("ingest.source", "kinesis")
	v.SetDefault("ingest.group", "outputs.store")
	v.SetDefault("ingest.workers", 10)
	v.SetDefault("ingest.base_delay", "500ms")
	v.SetDefault("ingest.max_delay", "30s")
	v.SetDefault("ingest.max_retries", 10)

	v.SetDefault("kinesis.stream", "")
	v.SetDefault("kinesis.shard_id", "")
	v.SetDefault("kinesis.region", "")
	v.SetDefault("kinesis.endpoint", "")
	v.SetDefault("kinesis.start_at", "TRIM_HORIZON")
	v.SetDefault("kinesis.poll_interval", "1s")

	v.SetDefault("cache.size", 1000)
	v.SetDefault("cache.ttl", "5s")

	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.spec", "*/5 * * * *")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
