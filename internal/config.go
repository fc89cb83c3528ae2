package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Neo4j Neo4jConfig       `yaml:"neo4j"`
	Cache CacheConfig       `yaml:"cache"`
	Auth  AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Neo4j.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// Neo4jConfig holds Neo4j connection configuration. Username and Password
// are usually left empty in the YAML file and filled from CLI flags or
// Docker secrets.
type Neo4jConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-query timeout.
func (c *Neo4jConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate validates the Neo4j configuration.
func (c *Neo4jConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URI, validation.Required),
		validation.Field(&c.Database, validation.Required),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// CacheConfig holds graph cache configuration.
type CacheConfig struct {
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`
}

// RefreshInterval returns the cache refresh period.
func (c *CacheConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RefreshIntervalSeconds, validation.Required, validation.Min(1)),
	)
}

// AuthConfig holds write authentication configuration.
//
// WriteToken protects the module creation endpoint. An empty token means
// writes are rejected until one is provided via flag or Docker secret.
type AuthConfig struct {
	WriteToken string `yaml:"write_token"`
	SecretsDir string `yaml:"secrets_dir"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Neo4j: Neo4jConfig{
			URI:            "bolt://localhost:7687",
			Database:       "neo4j",
			TimeoutSeconds: 10,
		},
		Cache: CacheConfig{
			RefreshIntervalSeconds: 60,
		},
		Auth: AuthConfig{
			SecretsDir: "/run/secrets",
		},
	}
}
