package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Ingest      IngestConfig
	Sync        SyncConfig
	Environment    string
	LogLevel       string
	Version        string
	TracingEnabled bool
}

type ServerConfig struct {
	Port int
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// IngestConfig bounds what the ingestion API accepts.
type IngestConfig struct {
	// APIKeys maps raw keys to a comma-separated scope list. The real key
	// store lives outside this service; this is the bootstrap verifier used
	// when none is injected.
	APIKeys map[string]string

	MaxPayloadBytes int
	MaxNestingDepth int
}

// SyncConfig tunes the destination sync worker and maintenance loop.
type SyncConfig struct {
	PollInterval       time.Duration
	BatchSize          int
	MaxAttempts        int
	DestinationTimeout time.Duration
	MaintenanceEvery   time.Duration
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "signalforge")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)
	v.SetDefault("TRACING_ENABLED", false)

	// Ingest defaults
	v.SetDefault("INGEST_MAX_PAYLOAD_BYTES", 10*1024)
	v.SetDefault("INGEST_MAX_NESTING_DEPTH", 10)

	// Sync worker defaults
	v.SetDefault("SYNC_POLL_INTERVAL", "10s")
	v.SetDefault("SYNC_BATCH_SIZE", 50)
	v.SetDefault("SYNC_MAX_ATTEMPTS", 5)
	v.SetDefault("SYNC_DESTINATION_TIMEOUT", "15s")
	v.SetDefault("SYNC_MAINTENANCE_EVERY", "5m")

	// Load environment file if specified
	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}

		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Ingest: IngestConfig{
			APIKeys:         parseAPIKeys(v.GetString("INGEST_API_KEYS")),
			MaxPayloadBytes: v.GetInt("INGEST_MAX_PAYLOAD_BYTES"),
			MaxNestingDepth: v.GetInt("INGEST_MAX_NESTING_DEPTH"),
		},
		Sync: SyncConfig{
			PollInterval:       v.GetDuration("SYNC_POLL_INTERVAL"),
			BatchSize:          v.GetInt("SYNC_BATCH_SIZE"),
			MaxAttempts:        v.GetInt("SYNC_MAX_ATTEMPTS"),
			DestinationTimeout: v.GetDuration("SYNC_DESTINATION_TIMEOUT"),
			MaintenanceEvery:   v.GetDuration("SYNC_MAINTENANCE_EVERY"),
		},
		Environment:    v.GetString("ENVIRONMENT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		Version:        v.GetString("VERSION"),
		TracingEnabled: v.GetBool("TRACING_ENABLED"),
	}

	if cfg.Sync.MaxAttempts < 1 {
		return nil, fmt.Errorf("SYNC_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.Sync.DestinationTimeout >= 30*time.Second {
		// The destination timeout must stay well under the job-processing
		// deadline so one hung call cannot starve the drain batch.
		return nil, fmt.Errorf("SYNC_DESTINATION_TIMEOUT must be under 30s")
	}

	return cfg, nil
}

// parseAPIKeys parses "key1:scope1|scope2,key2:scope1" into a map.
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		keys[parts[0]] = parts[1]
	}
	return keys
}

// IsDevelopment returns true when running in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
