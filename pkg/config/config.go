// Package config provides configuration management for thread dump analysis.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/thobe/thread-dump-analysis/pkg/errors"
	"github.com/thobe/thread-dump-analysis/pkg/telemetry"
)

// EnvPrefix prefixes environment overrides, e.g. TDA_ANALYSIS_FILTER.
const EnvPrefix = "TDA"

// Config holds all configuration for the application.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// AnalysisConfig holds analysis-related configuration.
type AnalysisConfig struct {
	Filter          string `mapstructure:"filter"`
	OutputDir       string `mapstructure:"output_dir"`
	GraphFormat     string `mapstructure:"graph_format"` // dot or json
	SummaryFormat   string `mapstructure:"summary_format"` // json or yaml
	WriteTextReport bool   `mapstructure:"write_text_report"`
	PrintLockMatrix bool   `mapstructure:"print_lock_matrix"`
	StrictMode      bool   `mapstructure:"strict_mode"`
	MaxLineSize     int    `mapstructure:"max_line_size"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// DatabaseConfig holds snapshot history database configuration.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // sqlite, mysql or postgres
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	ServiceName string            `mapstructure:"service_name"`
	Endpoint    string            `mapstructure:"endpoint"`
	Protocol    string            `mapstructure:"protocol"` // grpc or http
	Insecure    bool              `mapstructure:"insecure"`
	Sampler     string            `mapstructure:"sampler"`
	SamplerArg  string            `mapstructure:"sampler_arg"`
	Headers     map[string]string `mapstructure:"headers"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty means stderr
}

// Load reads configuration from the specified file path. A missing file
// falls back to defaults.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tda")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/tda")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.CodeConfigError, "failed to read config file", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "failed to read config", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.filter", "")
	v.SetDefault("analysis.output_dir", ".")
	v.SetDefault("analysis.graph_format", "dot")
	v.SetDefault("analysis.summary_format", "json")
	v.SetDefault("analysis.write_text_report", false)
	v.SetDefault("analysis.print_lock_matrix", true)
	v.SetDefault("analysis.strict_mode", false)
	v.SetDefault("analysis.max_line_size", 16*1024*1024)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./graphs")
	v.SetDefault("storage.scheme", "https")
	v.SetDefault("storage.domain", "myqcloud.com")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.secret_id", "")
	v.SetDefault("storage.secret_key", "")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./tda.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.max_conns", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.protocol", "grpc")
	v.SetDefault("telemetry.sampler", "parentbased_always_on")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.sampler_arg", "")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Analysis.GraphFormat {
	case "dot", "json":
	default:
		return configError("unsupported graph format: %s", c.Analysis.GraphFormat)
	}
	switch c.Analysis.SummaryFormat {
	case "json", "yaml":
	default:
		return configError("unsupported summary format: %s", c.Analysis.SummaryFormat)
	}
	if c.Analysis.MaxLineSize < 0 {
		return configError("max line size must not be negative")
	}

	// Storage details are checked by the storage package.

	if c.Database.Enabled {
		switch c.Database.Type {
		case "sqlite":
			if c.Database.Path == "" {
				return configError("database path is required for sqlite")
			}
		case "mysql", "postgres":
			if c.Database.Host == "" {
				return configError("database host is required")
			}
		default:
			return configError("unsupported database type: %s", c.Database.Type)
		}
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		return configError("unsupported telemetry protocol: %s", c.Telemetry.Protocol)
	}

	return nil
}

// TracingConfig converts the telemetry section, then applies OTEL_* overrides.
func (c *Config) TracingConfig(version string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.Enabled = c.Telemetry.Enabled
	if c.Telemetry.ServiceName != "" {
		tc.ServiceName = c.Telemetry.ServiceName
	}
	if version != "" {
		tc.ServiceVersion = version
	}
	tc.Endpoint = c.Telemetry.Endpoint
	if c.Telemetry.Protocol != "" {
		tc.Protocol = c.Telemetry.Protocol
	}
	tc.Insecure = c.Telemetry.Insecure
	tc.Sampler = c.Telemetry.Sampler
	tc.SamplerArg = c.Telemetry.SamplerArg
	for k, v := range c.Telemetry.Headers {
		tc.Headers[k] = v
	}
	tc.ApplyEnv()
	return tc
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (c *Config) EnsureOutputDir() error {
	if c.Analysis.OutputDir == "" {
		return nil
	}
	return os.MkdirAll(c.Analysis.OutputDir, 0755)
}

func configError(format string, args ...interface{}) error {
	return errors.New(errors.CodeConfigError, fmt.Sprintf(format, args...))
}
