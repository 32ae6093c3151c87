package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		DBHost:              "localhost",
		DBPort:              "5433",
		DBUser:              "postgres",
		DBPassword:          "postgres",
		DBName:              "postgres",
		DBSSLMode:           "disable",
		SeedTable:           "public.clicks",
		SeedRows:            1000,
		SeedInterval:        time.Second,
		SeedBaseTime:        DefaultBaseTime,
		SeedStep:            time.Minute,
		SeedCostMin:         0.5,
		SeedCostMax:         5.5,
		SeedConversionRate:  0.5,
		SeedUserIDWidth:     12,
		TracingExporter:     "stdout",
		TracingSamplerRatio: 1,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", c.DBHost)
	assert.Equal(t, "5433", c.DBPort)
	assert.Equal(t, "postgres", c.DBName)
	assert.Equal(t, "postgres", c.DBUser)
	assert.Equal(t, "public.clicks", c.SeedTable)
	assert.Equal(t, 1000, c.SeedRows)
	assert.Equal(t, time.Second, c.SeedInterval)
	assert.Equal(t, time.Minute, c.SeedStep)
	assert.Equal(t, 0.5, c.SeedCostMin)
	assert.Equal(t, 5.5, c.SeedCostMax)
	assert.Equal(t, 0.5, c.SeedConversionRate)
	assert.Equal(t, 12, c.SeedUserIDWidth)
	assert.False(t, c.SeedAutoMigrate)
	assert.Empty(t, c.RedisURL)
	assert.Empty(t, c.StatusAddr)

	base, err := c.BaseTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 2, 1, 13, 30, 25, 0, time.UTC), base)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("SEED_ROWS", "25")
	t.Setenv("SEED_INTERVAL", "250ms")
	t.Setenv("SEED_TABLE", "clicks")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, c.SeedRows)
	assert.Equal(t, 250*time.Millisecond, c.SeedInterval)
	assert.Equal(t, "clicks", c.SeedTable)
	assert.Equal(t, "disable", c.DBSSLMode)
}

func TestLoadConfig_InvalidRowsRejected(t *testing.T) {
	defer viper.Reset()

	t.Setenv("SEED_ROWS", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero interval allowed", func(c *Config) { c.SeedInterval = 0 }, false},
		{"negative interval", func(c *Config) { c.SeedInterval = -time.Second }, true},
		{"zero step", func(c *Config) { c.SeedStep = 0 }, true},
		{"negative rows", func(c *Config) { c.SeedRows = -1 }, true},
		{"empty table", func(c *Config) { c.SeedTable = "  " }, true},
		{"bad base time", func(c *Config) { c.SeedBaseTime = "2023-02-01 13:30:25" }, true},
		{"inverted cost range", func(c *Config) { c.SeedCostMin, c.SeedCostMax = 6, 1 }, true},
		{"conversion rate above one", func(c *Config) { c.SeedConversionRate = 1.5 }, true},
		{"zero width", func(c *Config) { c.SeedUserIDWidth = 0 }, true},
		{"missing host without url", func(c *Config) { c.DBHost = "" }, true},
		{"url replaces host", func(c *Config) {
			c.DBHost = ""
			c.DatabaseURL = "postgres://postgres:postgres@db:5432/postgres"
		}, false},
		{"unknown exporter with tracing", func(c *Config) {
			c.TracingEnabled = true
			c.TracingExporter = "jaeger"
		}, true},
		{"unknown exporter without tracing", func(c *Config) { c.TracingExporter = "jaeger" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "host=localhost port=5433 user=postgres password=postgres dbname=postgres sslmode=disable", c.DSN())

	c.DBSSLMode = ""
	assert.Contains(t, c.DSN(), "sslmode=disable")

	c.DatabaseURL = "postgres://u:p@h:1/d"
	assert.Equal(t, "postgres://u:p@h:1/d", c.DSN())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SEED_PUBLISH_CHANNEL=clicks:dotenv\n"), 0o600))
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("SEED_PUBLISH_CHANNEL") })

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "clicks:dotenv", c.SeedPublishChannel)
}
