package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable of the application. It is loaded once at
// startup and passed explicitly to the components that need it; nothing
// reads configuration from package globals.
type Config struct {
	Server struct {
		Port    int    `mapstructure:"port"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"server"`

	Database struct {
		Host           string `mapstructure:"host"`
		Port           string `mapstructure:"port"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		Name           string `mapstructure:"name"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"database"`

	Auth struct {
		JWTSecret     string `mapstructure:"jwt_secret"`
		TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	} `mapstructure:"auth"`

	ShortID struct {
		Length      int `mapstructure:"length"`
		MaxAttempts int `mapstructure:"max_attempts"`
	} `mapstructure:"short_id"`

	Analytics struct {
		BufferSize           int `mapstructure:"buffer_size"`
		WorkerCount          int `mapstructure:"worker_count"`
		AppendTimeoutSeconds int `mapstructure:"append_timeout_seconds"`
	} `mapstructure:"analytics"`
}

// LoadConfig reads configs/config.yaml if present and applies environment
// overrides (SERVER_PORT, DATABASE_HOST, ...). Missing file is not an error;
// defaults cover every key.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "shortlink")
	viper.SetDefault("database.password", "shortlink")
	viper.SetDefault("database.name", "shortlink")
	viper.SetDefault("database.timeout_seconds", 5)
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.token_ttl_hours", 24)
	viper.SetDefault("short_id.length", 8)
	viper.SetDefault("short_id.max_attempts", 5)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 4)
	viper.SetDefault("analytics.append_timeout_seconds", 10)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Database.Host, c.Database.User, c.Database.Password, c.Database.Name, c.Database.Port)
}

// StoreTimeout is the bound applied to every persistence round-trip.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSeconds) * time.Second
}

// TokenTTL is the lifetime of issued JWTs.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// AppendTimeout bounds a background click append.
func (c *Config) AppendTimeout() time.Duration {
	return time.Duration(c.Analytics.AppendTimeoutSeconds) * time.Second
}
