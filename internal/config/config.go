package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dataset source kinds.
const (
	SourceFile     = "file"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Dataset  DatasetConfig
	Search   SearchConfig
	Database DatabaseConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// LogConfig holds logging configuration. An empty level lets the logger
// pick one from the environment.
type LogConfig struct {
	Level string
}

// DatasetConfig describes where the school dataset is fetched from.
type DatasetConfig struct {
	Source  string
	Path    string
	URL     string
	Timeout time.Duration
}

// SearchConfig holds the presentation limits applied to search results.
type SearchConfig struct {
	DisplayCap     int
	DebounceWindow time.Duration
	MinQueryLength int
}

// DatabaseConfig holds PostgreSQL connection configuration.
// It is only required when the dataset source is postgres.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// Load reads configuration from environment variables and, when
// CONFIG_FILE is set, from that file. Environment variables win over
// file values.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("DATASET_SOURCE", SourceFile)
	v.SetDefault("DATASET_PATH", "public/data/schools.json")
	v.SetDefault("DATASET_TIMEOUT", "10s")
	v.SetDefault("DISPLAY_CAP", 100)
	v.SetDefault("DEBOUNCE_WINDOW", "300ms")
	v.SetDefault("MIN_QUERY_LENGTH", 2)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "schoolfinder")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 1)
	v.SetDefault("DB_POOL_MAX", 4)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5002")

	// Bind environment variables
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Dataset: DatasetConfig{
			Source:  strings.ToLower(strings.TrimSpace(v.GetString("DATASET_SOURCE"))),
			Path:    v.GetString("DATASET_PATH"),
			URL:     v.GetString("DATASET_URL"),
			Timeout: v.GetDuration("DATASET_TIMEOUT"),
		},
		Search: SearchConfig{
			DisplayCap:     v.GetInt("DISPLAY_CAP"),
			DebounceWindow: v.GetDuration("DEBOUNCE_WINDOW"),
			MinQueryLength: v.GetInt("MIN_QUERY_LENGTH"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: parseOrigins(v.GetString("CORS_ORIGINS")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Dataset.Source {
	case SourceFile:
		if c.Dataset.Path == "" {
			return fmt.Errorf("DATASET_PATH is required for the file source")
		}
	case SourceHTTP:
		if c.Dataset.URL == "" {
			return fmt.Errorf("DATASET_URL is required for the http source")
		}
	case SourcePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("DATASET_SOURCE must be one of %s, %s, %s; got %q",
			SourceFile, SourceHTTP, SourcePostgres, c.Dataset.Source)
	}
	if c.Dataset.Timeout <= 0 {
		return fmt.Errorf("DATASET_TIMEOUT must be positive")
	}

	if c.Search.DisplayCap < 1 {
		return fmt.Errorf("DISPLAY_CAP must be at least 1")
	}
	if c.Search.DebounceWindow <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive")
	}
	if c.Search.MinQueryLength < 0 {
		return fmt.Errorf("MIN_QUERY_LENGTH must be non-negative")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

// Validate checks the PostgreSQL settings.
func (d DatabaseConfig) Validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// parseOrigins splits a comma-separated string of origins into a slice.
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
