package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Export    ExportConfig    `yaml:"export"`
	Snowflake SnowflakeConfig `yaml:"snowflake"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres batch store configuration.
// An empty URL disables persistence; the API then serves one-shot runs only.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// RedisConfig holds the result cache configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
	Enabled  bool   `yaml:"enabled"`
}

// TTL returns the cache TTL as a duration.
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Region  string `yaml:"s3_region"`
	S3Prefix  string `yaml:"s3_prefix"`
}

// SnowflakeConfig holds the optional Snowflake contact directory source.
// When enabled, the contacts role may be omitted from uploads and the
// directory is read from the configured table instead.
type SnowflakeConfig struct {
	Account   string `yaml:"account"`
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Warehouse string `yaml:"warehouse"`
	Table     string `yaml:"table"`
	Enabled   bool   `yaml:"enabled"`
}

// PipelineConfig holds batch preprocessing settings.
type PipelineConfig struct {
	DataDir      string `yaml:"data_dir"`
	ContactsPath string `yaml:"contacts_path"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// RedactEnabled reports whether PII redaction is on (default true).
func (c LoggingConfig) RedactEnabled() bool {
	if c.RedactPII == nil {
		return true
	}
	return *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Redis.TTLHours == 0 {
		cfg.Redis.TTLHours = 24
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "data/processed_files"
	}
	if cfg.Export.S3Prefix == "" {
		cfg.Export.S3Prefix = "reconciliation"
	}
	if cfg.Snowflake.Schema == "" {
		cfg.Snowflake.Schema = "PUBLIC"
	}
	if cfg.Snowflake.Table == "" {
		cfg.Snowflake.Table = "CONTACT_DIRECTORY"
	}
	if cfg.Pipeline.DataDir == "" {
		cfg.Pipeline.DataDir = "data"
	}
	if cfg.Pipeline.ContactsPath == "" {
		cfg.Pipeline.ContactsPath = "data/contacts.csv"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
		cfg.Database.Enabled = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}
	if bucket := os.Getenv("EXPORT_S3_BUCKET"); bucket != "" {
		cfg.Export.S3Bucket = bucket
	}
	if region := os.Getenv("EXPORT_S3_REGION"); region != "" {
		cfg.Export.S3Region = region
	}
	if account := os.Getenv("SNOWFLAKE_ACCOUNT"); account != "" {
		cfg.Snowflake.Account = account
	}
	if user := os.Getenv("SNOWFLAKE_USER"); user != "" {
		cfg.Snowflake.User = user
	}
	if pw := os.Getenv("SNOWFLAKE_PASSWORD"); pw != "" {
		cfg.Snowflake.Password = pw
	}

	return cfg, nil
}
