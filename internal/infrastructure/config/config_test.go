package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"SHIPLOADER_DATABASE_HOST":           os.Getenv("SHIPLOADER_DATABASE_HOST"),
		"SHIPLOADER_DATABASE_PORT":           os.Getenv("SHIPLOADER_DATABASE_PORT"),
		"SHIPLOADER_DATABASE_USER":           os.Getenv("SHIPLOADER_DATABASE_USER"),
		"SHIPLOADER_DATABASE_PASSWORD":       os.Getenv("SHIPLOADER_DATABASE_PASSWORD"),
		"SHIPLOADER_DATABASE_NAME":           os.Getenv("SHIPLOADER_DATABASE_NAME"),
		"SHIPLOADER_DATABASE_MAX_OPEN_CONNS": os.Getenv("SHIPLOADER_DATABASE_MAX_OPEN_CONNS"),
		"SHIPLOADER_DATABASE_MAX_IDLE_CONNS": os.Getenv("SHIPLOADER_DATABASE_MAX_IDLE_CONNS"),
		"SHIPLOADER_INPUT_DIR":               os.Getenv("SHIPLOADER_INPUT_DIR"),
		"SHIPLOADER_RUN_MODE":                os.Getenv("SHIPLOADER_RUN_MODE"),
		"SHIPLOADER_RUN_MAX_ROW_ERRORS":      os.Getenv("SHIPLOADER_RUN_MAX_ROW_ERRORS"),
		"SHIPLOADER_LOG_LEVEL":               os.Getenv("SHIPLOADER_LOG_LEVEL"),
		"SHIPLOADER_LOG_FORMAT":              os.Getenv("SHIPLOADER_LOG_FORMAT"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 3306, cfg.Database.Port)
		assert.Equal(t, "root", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "shipping_db", cfg.Database.Name)
		assert.Equal(t, "utf8mb4", cfg.Database.Charset)
		assert.Equal(t, 4, cfg.Database.MaxOpenConns)
		assert.Equal(t, 2, cfg.Database.MaxIdleConns)
		assert.Equal(t, "data", cfg.Input.Dir)
		assert.Equal(t, "shipping_data_0.csv", cfg.Input.DirectFile)
		assert.Equal(t, "shipping_data_1.csv", cfg.Input.ShipmentFile)
		assert.Equal(t, "shipping_data_2.csv", cfg.Input.RouteFile)
		assert.Equal(t, "append", cfg.Run.Mode)
		assert.Equal(t, 100, cfg.Run.MaxRowErrors)
		assert.Equal(t, 10, cfg.Run.TopProducts)
		assert.Equal(t, 10, cfg.Run.SampleSize)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("loads values from environment variables with SHIPLOADER prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_DATABASE_HOST", "db.internal")
		os.Setenv("SHIPLOADER_DATABASE_PORT", "3307")
		os.Setenv("SHIPLOADER_DATABASE_USER", "loader")
		os.Setenv("SHIPLOADER_DATABASE_PASSWORD", "secret")
		os.Setenv("SHIPLOADER_DATABASE_NAME", "shipping_test")
		os.Setenv("SHIPLOADER_INPUT_DIR", "/srv/feeds")
		os.Setenv("SHIPLOADER_RUN_MODE", "replace")
		os.Setenv("SHIPLOADER_LOG_LEVEL", "debug")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 3307, cfg.Database.Port)
		assert.Equal(t, "loader", cfg.Database.User)
		assert.Equal(t, "secret", cfg.Database.Password)
		assert.Equal(t, "shipping_test", cfg.Database.Name)
		assert.Equal(t, "/srv/feeds", cfg.Input.Dir)
		assert.Equal(t, "replace", cfg.Run.Mode)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("loads values from an explicit TOML file", func(t *testing.T) {
		clearEnv()

		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		content := `[database]
host = "mysql.example.com"
port = 3306
user = "etl"
name = "shipping"

[input]
dir = "fixtures"

[run]
mode = "replace"
top_products = 5
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "mysql.example.com", cfg.Database.Host)
		assert.Equal(t, "etl", cfg.Database.User)
		assert.Equal(t, "shipping", cfg.Database.Name)
		assert.Equal(t, "fixtures", cfg.Input.Dir)
		assert.Equal(t, "replace", cfg.Run.Mode)
		assert.Equal(t, 5, cfg.Run.TopProducts)
		// Untouched keys still get defaults
		assert.Equal(t, "shipping_data_1.csv", cfg.Input.ShipmentFile)
		assert.Equal(t, 10, cfg.Run.SampleSize)
	})

	t.Run("environment overrides file values", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_DATABASE_HOST", "override.internal")

		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[database]\nhost = \"from-file\"\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "override.internal", cfg.Database.Host)
	})

	t.Run("fails when explicit config file is missing", func(t *testing.T) {
		clearEnv()

		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_DATABASE_MAX_OPEN_CONNS", "2")
		os.Setenv("SHIPLOADER_DATABASE_MAX_IDLE_CONNS", "8")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects unknown run mode", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_RUN_MODE", "purge")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.mode")
		assert.Contains(t, err.Error(), "must be one of")
	})

	t.Run("rejects unknown log level", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_LOG_LEVEL", "verbose")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log.level")
	})

	t.Run("rejects out-of-range port", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPLOADER_DATABASE_PORT", "70000")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.port")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "loader",
			Password: "secret",
			Name:     "shipping_db",
			Charset:  "utf8mb4",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "loader:secret@tcp(localhost:3306)/shipping_db")
		assert.Contains(t, dsn, "charset=utf8mb4")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("server DSN selects no database", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:    "localhost",
			Port:    3306,
			User:    "root",
			Charset: "utf8mb4",
		}

		dsn := cfg.ServerDSN()
		assert.Contains(t, dsn, "tcp(localhost:3306)/?")
		assert.NotContains(t, dsn, "shipping_db")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host: "localhost",
			Port: 3306,
			User: "root",
			Name: "db",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
		assert.Contains(t, dsn, "root@tcp(localhost:3306)/db")
	})
}

func TestInputConfig_Paths(t *testing.T) {
	in := InputConfig{
		Dir:          "data",
		DirectFile:   "shipping_data_0.csv",
		ShipmentFile: "shipping_data_1.csv",
		RouteFile:    "shipping_data_2.csv",
	}

	assert.Equal(t, filepath.Join("data", "shipping_data_0.csv"), in.DirectPath())
	assert.Equal(t, filepath.Join("data", "shipping_data_1.csv"), in.ShipmentPath())
	assert.Equal(t, filepath.Join("data", "shipping_data_2.csv"), in.RoutePath())
	assert.Equal(t, []string{in.DirectPath(), in.ShipmentPath(), in.RoutePath()}, in.Paths())
}
