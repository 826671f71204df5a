package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerHost string `mapstructure:"server_host"`
	ServerPort string `mapstructure:"server_port" validate:"required,numeric"`

	// Database configuration
	DBDriver      string `mapstructure:"db_driver" validate:"oneof=postgres sqlite"`
	DBHost        string `mapstructure:"db_host" validate:"required_if=DBDriver postgres"`
	DBPort        string `mapstructure:"db_port" validate:"required_if=DBDriver postgres"`
	DBUser        string `mapstructure:"db_user"`
	DBPassword    string `mapstructure:"db_password"`
	DBName        string `mapstructure:"db_name" validate:"required_if=DBDriver postgres"`
	DBSSLMode     string `mapstructure:"db_ssl_mode"`
	SQLitePath    string `mapstructure:"sqlite_path" validate:"required_if=DBDriver sqlite"`
	MigrationsDir string `mapstructure:"migrations_dir"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`

	// Redis configuration; rate limiting is disabled when neither URL nor host is set
	RedisURL      string `mapstructure:"redis_url"`
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"min=0"`

	// Text-generation service
	LLMAPIKey      string        `mapstructure:"llm_api_key"`
	LLMBaseURL     string        `mapstructure:"llm_base_url" validate:"required,url"`
	LLMModel       string        `mapstructure:"llm_model" validate:"required"`
	LLMTemperature float64       `mapstructure:"llm_temperature" validate:"gte=0,lte=2"`
	LLMTimeout     time.Duration `mapstructure:"llm_timeout" validate:"gt=0"`

	// Recommendation behaviour
	HistoryTurns        int  `mapstructure:"history_turns" validate:"min=1"`
	BackfillMaxAttempts int  `mapstructure:"backfill_max_attempts" validate:"min=1,max=10"`
	EagerInstructions   bool `mapstructure:"eager_instructions"`

	// Images
	DefaultImageURL    string        `mapstructure:"default_image_url" validate:"required"`
	S3Bucket           string        `mapstructure:"s3_bucket"`
	S3Region           string        `mapstructure:"s3_region"`
	S3Endpoint         string        `mapstructure:"s3_endpoint"`
	S3PresignTTL       time.Duration `mapstructure:"s3_presign_ttl" validate:"gt=0"`
	AWSAccessKeyID     string        `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string        `mapstructure:"aws_secret_access_key"`

	// HTTP
	CORSOrigins        []string      `mapstructure:"cors_origins"`
	RateLimitPerWindow int           `mapstructure:"rate_limit_per_window" validate:"min=0"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window" validate:"gt=0"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`
}

var defaults = map[string]interface{}{
	"server_host":           "0.0.0.0",
	"server_port":           "8080",
	"db_driver":             "postgres",
	"db_host":               "localhost",
	"db_port":               "5432",
	"db_user":               "postgres",
	"db_password":           "",
	"db_name":               "recipick",
	"db_ssl_mode":           "disable",
	"sqlite_path":           "recipick.db",
	"migrations_dir":        "migrations",
	"auto_migrate":          true,
	"redis_url":             "",
	"redis_host":            "",
	"redis_port":            "6379",
	"redis_password":        "",
	"redis_db":              0,
	"llm_api_key":           "",
	"llm_base_url":          "https://api.openai.com/v1",
	"llm_model":             "gpt-4o-mini",
	"llm_temperature":       0.7,
	"llm_timeout":           "30s",
	"history_turns":         5,
	"backfill_max_attempts": 3,
	"eager_instructions":    true,
	"default_image_url":     "/static/images/default.png",
	"s3_bucket":             "",
	"s3_region":             "ap-northeast-2",
	"s3_endpoint":           "",
	"s3_presign_ttl":        "15m",
	"aws_access_key_id":     "",
	"aws_secret_access_key": "",
	"cors_origins":          []string{"http://localhost:5173", "http://frontend:5173", "http://localhost:8501"},
	"rate_limit_per_window": 20,
	"rate_limit_window":     "1m",
	"log_level":             "info",
	"log_format":            "json",
}

// secretKeys are read from Docker secrets outside CI.
var secretKeys = []string{
	"db_user",
	"db_password",
	"redis_password",
	"redis_url",
	"llm_api_key",
	"aws_secret_access_key",
}

// LoadConfig builds the configuration from defaults, an optional config.yaml,
// environment variables and Docker secrets, in increasing precedence.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	if env == Development {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		envName := strings.ToUpper(key)
		if err := v.BindEnv(key, "RECIPICK_"+envName, envName); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	switch env {
	case CI:
		loadCISecrets(v)
	case Development, Test, Production:
		loadDockerSecrets(v)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCISecrets maps the CI-provided TEST_* variables onto sensitive keys.
func loadCISecrets(v *viper.Viper) {
	for _, key := range secretKeys {
		if value := os.Getenv("TEST_" + strings.ToUpper(key)); value != "" {
			v.Set(key, value)
		}
	}
}

// loadDockerSecrets overrides sensitive keys with Docker secrets when present.
func loadDockerSecrets(v *viper.Viper) {
	for _, key := range secretKeys {
		if value := readSecret(key); value != "" {
			v.Set(key, value)
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	data, err := os.ReadFile(filepath.Join(secretsDir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// RedisEnabled reports whether a Redis endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
