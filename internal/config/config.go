// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseTime is the origin every generated click timestamp is offset from.
const DefaultBaseTime = "2023-02-01T13:30:25Z"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`

	SeedTable          string        `mapstructure:"SEED_TABLE"`
	SeedRows           int           `mapstructure:"SEED_ROWS"`
	SeedInterval       time.Duration `mapstructure:"SEED_INTERVAL"`
	SeedBaseTime       string        `mapstructure:"SEED_BASE_TIME"`
	SeedStep           time.Duration `mapstructure:"SEED_STEP"`
	SeedCostMin        float64       `mapstructure:"SEED_COST_MIN"`
	SeedCostMax        float64       `mapstructure:"SEED_COST_MAX"`
	SeedConversionRate float64       `mapstructure:"SEED_CONVERSION_RATE"`
	SeedUserIDWidth    int           `mapstructure:"SEED_USER_ID_WIDTH"`
	SeedRandomSeed     int64         `mapstructure:"SEED_RANDOM_SEED"`
	SeedAutoMigrate    bool          `mapstructure:"SEED_AUTO_MIGRATE"`

	RedisURL           string `mapstructure:"REDIS_URL"`
	SeedPublishChannel string `mapstructure:"SEED_PUBLISH_CHANNEL"`

	StatusAddr string `mapstructure:"STATUS_ADDR"`

	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint        string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// SetDefaults registers the default value of every key. The seeding defaults
// load 1000 clicks one second apart starting 2023-02-01 13:31:25 UTC.
func SetDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5433")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "postgres")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("SEED_TABLE", "public.clicks")
	viper.SetDefault("SEED_ROWS", 1000)
	viper.SetDefault("SEED_INTERVAL", "1s")
	viper.SetDefault("SEED_BASE_TIME", DefaultBaseTime)
	viper.SetDefault("SEED_STEP", "1m")
	viper.SetDefault("SEED_COST_MIN", 0.5)
	viper.SetDefault("SEED_COST_MAX", 5.5)
	viper.SetDefault("SEED_CONVERSION_RATE", 0.5)
	viper.SetDefault("SEED_USER_ID_WIDTH", 12)
	viper.SetDefault("SEED_RANDOM_SEED", 0)
	viper.SetDefault("SEED_AUTO_MIGRATE", false)

	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("SEED_PUBLISH_CHANNEL", "clicks:inserted")

	viper.SetDefault("STATUS_ADDR", "")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// A local .env fills in variables the shell has not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.TracingExporter = strings.ToLower(strings.TrimSpace(config.TracingExporter))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && (c.DBHost == "" || c.DBName == "") {
		return errors.New("DATABASE_URL or DB_HOST and DB_NAME are required")
	}
	if strings.TrimSpace(c.SeedTable) == "" {
		return errors.New("SEED_TABLE is required")
	}
	if c.SeedRows <= 0 {
		return fmt.Errorf("SEED_ROWS must be positive, got %d", c.SeedRows)
	}
	if c.SeedInterval < 0 {
		return fmt.Errorf("SEED_INTERVAL must not be negative, got %s", c.SeedInterval)
	}
	if c.SeedStep <= 0 {
		return fmt.Errorf("SEED_STEP must be positive, got %s", c.SeedStep)
	}
	if _, err := c.BaseTime(); err != nil {
		return err
	}
	if c.SeedCostMin < 0 || c.SeedCostMax < c.SeedCostMin {
		return fmt.Errorf("SEED_COST_MIN/SEED_COST_MAX form an invalid range [%v, %v]", c.SeedCostMin, c.SeedCostMax)
	}
	if c.SeedConversionRate < 0 || c.SeedConversionRate > 1 {
		return fmt.Errorf("SEED_CONVERSION_RATE must be within [0, 1], got %v", c.SeedConversionRate)
	}
	if c.SeedUserIDWidth <= 0 {
		return fmt.Errorf("SEED_USER_ID_WIDTH must be positive, got %d", c.SeedUserIDWidth)
	}
	if c.TracingEnabled && c.TracingExporter != "stdout" && c.TracingExporter != "otlp" {
		return fmt.Errorf("TRACING_EXPORTER must be stdout or otlp, got %q", c.TracingExporter)
	}

	if c.IsProduction() && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
		log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
	}

	return nil
}

// BaseTime parses SEED_BASE_TIME as RFC 3339 and returns it in UTC.
func (c *Config) BaseTime() (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, c.SeedBaseTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("SEED_BASE_TIME %q is not RFC 3339: %w", c.SeedBaseTime, err)
	}
	return ts.UTC(), nil
}

// IsProduction reports whether APP_ENV names a production profile.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// DSN returns DATABASE_URL when set, otherwise a keyword/value connection
// string assembled from the DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		sslMode,
	)
}
