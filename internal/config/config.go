package config

import (
	"strings"
	"time"

	"goethos/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GOETHOS_SERVER_PORT
const EnvPrefix = "GOETHOS"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Analysis AnalysisConfig `mapstructure:"analysis" validate:"required"`
	Logging  LoggingConfig  `mapstructure:"logging" validate:"required"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	GinMode         string        `mapstructure:"gin_mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig holds the survey response store connection. An empty URL
// means no database; file-based sources are used instead.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// CacheConfig selects the profile cache backend
type CacheConfig struct {
	Backend    string        `mapstructure:"backend" validate:"oneof=memory sqlite"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gt=0"`
	SQLitePath string        `mapstructure:"sqlite_path" validate:"required_if=Backend sqlite"`
}

// AnalysisConfig holds the statistical defaults used by the profile service
type AnalysisConfig struct {
	ConfidenceLevel     float64 `mapstructure:"confidence_level" validate:"gt=0,lt=1"`
	BootstrapIterations int     `mapstructure:"bootstrap_iterations" validate:"gte=1,lte=1000000"`
	Seed                int64   `mapstructure:"seed"`
	Folds               int     `mapstructure:"folds" validate:"gte=2"`
	Prior               float64 `mapstructure:"prior" validate:"gt=0,lt=1"`
	Chains              int     `mapstructure:"chains" validate:"gte=2"`
	Samples             int     `mapstructure:"samples" validate:"gte=2"`
	RHatThreshold       float64 `mapstructure:"rhat_threshold" validate:"gte=1"`
	ExpectedDomains     int     `mapstructure:"expected_domains" validate:"gte=1"`
	Concurrency         int     `mapstructure:"concurrency" validate:"gte=1"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Load reads configuration from an optional file and environment variables.
// Environment variables take precedence over the file; an empty path skips
// the file entirely.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to read config file"))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "failed to unmarshal config"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrap(err, "configuration validation failed"))
	}
	return nil
}

// Default returns the configuration produced by defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.gin_mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.sqlite_path", "")

	// Analysis defaults
	v.SetDefault("analysis.confidence_level", 0.95)
	v.SetDefault("analysis.bootstrap_iterations", 1000)
	v.SetDefault("analysis.seed", 42)
	v.SetDefault("analysis.folds", 5)
	v.SetDefault("analysis.prior", 0.2)
	v.SetDefault("analysis.chains", 4)
	v.SetDefault("analysis.samples", 1000)
	v.SetDefault("analysis.rhat_threshold", 1.1)
	v.SetDefault("analysis.expected_domains", 5)
	v.SetDefault("analysis.concurrency", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
