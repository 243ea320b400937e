package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Minio    MinioConfig    `yaml:"minio"`
	Intake   IntakeConfig   `yaml:"intake"`
	Worker   WorkerConfig   `yaml:"worker"`
	Filter   FilterConfig   `yaml:"filter"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// NATSConfig holds NATS connection settings
type NATSConfig struct {
	URL           string        `yaml:"url"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	DrainTimeout  time.Duration `yaml:"drain_timeout"`
}

// MinioConfig holds object store connection settings
type MinioConfig struct {
	Endpoint       string `yaml:"endpoint"`
	PublicEndpoint string `yaml:"public_endpoint"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	UseSSL         bool   `yaml:"use_ssl"`
}

// IntakeConfig holds upload intake settings
type IntakeConfig struct {
	Bucket         string `yaml:"bucket"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	Concurrency   int           `yaml:"concurrency"`
	ResultBucket  string        `yaml:"result_bucket"`
	FetchWait     time.Duration `yaml:"fetch_wait"`
	NakBackoff    time.Duration `yaml:"nak_backoff"`
	NakBackoffMax time.Duration `yaml:"nak_backoff_max"`
}

// FilterConfig holds fastq filter thresholds
type FilterConfig struct {
	MinLen        int     `yaml:"min_len"`
	MaxLen        int     `yaml:"max_len"`
	MinError      float64 `yaml:"min_error"`
	MaxError      float64 `yaml:"max_error"`
	MinSoftmasked int     `yaml:"min_softmasked"`
	MaxSoftmasked int     `yaml:"max_softmasked"`
	MinAmbiguous  int     `yaml:"min_ambiguous"`
	MaxAmbiguous  int     `yaml:"max_ambiguous"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// validateShared checks configuration required by both services
func (c *Config) validateShared() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.NATS.URL == "" {
		return fmt.Errorf("nats url is required")
	}

	if c.Minio.Endpoint == "" {
		return fmt.Errorf("minio endpoint is required")
	}

	return nil
}

// ValidateAPIConfig checks configuration required by the API service
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Intake.Bucket == "" {
		return fmt.Errorf("intake bucket is required")
	}

	if c.Intake.MaxUploadBytes <= 0 {
		return fmt.Errorf("intake max_upload_bytes must be greater than 0")
	}

	return c.validateShared()
}

// ValidateWorkerConfig checks configuration required by the worker service
func (c *Config) ValidateWorkerConfig() error {
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.Worker.ResultBucket == "" {
		return fmt.Errorf("worker result_bucket is required")
	}

	if c.Worker.FetchWait <= 0 {
		return fmt.Errorf("worker fetch_wait must be greater than 0")
	}

	if c.Worker.NakBackoff <= 0 || c.Worker.NakBackoffMax < c.Worker.NakBackoff {
		return fmt.Errorf("worker nak backoff must be positive and nak_backoff_max >= nak_backoff")
	}

	if c.Filter.MaxLen > 0 && c.Filter.MinLen > c.Filter.MaxLen {
		return fmt.Errorf("filter min_len must not exceed max_len")
	}

	if c.Filter.MaxError > 0 && c.Filter.MaxError < c.Filter.MinError {
		return fmt.Errorf("filter max_error must not be below min_error")
	}

	return c.validateShared()
}
