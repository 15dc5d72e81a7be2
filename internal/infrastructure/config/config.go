package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Input    InputConfig    `toml:"input"`
	Run      RunConfig      `toml:"run"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig holds MySQL connection settings
type DatabaseConfig struct {
	Host            string `toml:"host" validate:"required"`
	Port            int    `toml:"port" validate:"required,min=1,max=65535"`
	User            string `toml:"user" validate:"required"`
	Password        string `toml:"password"`
	Name            string `toml:"name" validate:"required"`
	Charset         string `toml:"charset" validate:"required"`
	MaxOpenConns    int    `toml:"max_open_conns" validate:"min=1"`
	MaxIdleConns    int    `toml:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" validate:"min=0"` // in minutes
	ConnMaxIdleTime int    `toml:"conn_max_idle_time" validate:"min=0"` // in minutes
}

// InputConfig holds the locations of the three source CSV files
type InputConfig struct {
	Dir          string `toml:"dir" validate:"required"`
	DirectFile   string `toml:"direct_file" validate:"required"`
	ShipmentFile string `toml:"shipment_file" validate:"required"`
	RouteFile    string `toml:"route_file" validate:"required"`
}

// RunConfig holds per-run behavior settings
type RunConfig struct {
	Mode         string `toml:"mode" validate:"required,oneof=append replace"`
	MaxRowErrors int    `toml:"max_row_errors" validate:"min=1"`
	TopProducts  int    `toml:"top_products" validate:"min=1"`
	SampleSize   int    `toml:"sample_size" validate:"min=1"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `toml:"level" validate:"required,oneof=debug info warn error"`
	Format string `toml:"format" validate:"required,oneof=console json"`
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SHIPLOADER_ prefix (e.g., SHIPLOADER_DATABASE_PASSWORD)
// 2. The TOML file (explicit path, or config.toml found in . / ./configs)
// 3. Built-in defaults
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
			// Config file not found is OK, we'll use defaults and env vars
		}
	}

	// Enable environment variable override
	v.SetEnvPrefix("SHIPLOADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			Charset:         v.GetString("database.charset"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Input: InputConfig{
			Dir:          v.GetString("input.dir"),
			DirectFile:   v.GetString("input.direct_file"),
			ShipmentFile: v.GetString("input.shipment_file"),
			RouteFile:    v.GetString("input.route_file"),
		},
		Run: RunConfig{
			Mode:         v.GetString("run.mode"),
			MaxRowErrors: v.GetInt("run.max_row_errors"),
			TopProducts:  v.GetInt("run.top_products"),
			SampleSize:   v.GetInt("run.sample_size"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "root"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "shipping_db"
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 10
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 5
	}
	if cfg.Input.Dir == "" {
		cfg.Input.Dir = "data"
	}
	if cfg.Input.DirectFile == "" {
		cfg.Input.DirectFile = "shipping_data_0.csv"
	}
	if cfg.Input.ShipmentFile == "" {
		cfg.Input.ShipmentFile = "shipping_data_1.csv"
	}
	if cfg.Input.RouteFile == "" {
		cfg.Input.RouteFile = "shipping_data_2.csv"
	}
	if cfg.Run.Mode == "" {
		cfg.Run.Mode = "append"
	}
	if cfg.Run.MaxRowErrors == 0 {
		cfg.Run.MaxRowErrors = 100
	}
	if cfg.Run.TopProducts == 0 {
		cfg.Run.TopProducts = 10
	}
	if cfg.Run.SampleSize == 0 {
		cfg.Run.SampleSize = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	val := validator.New(validator.WithRequiredStructEnabled())
	// Use TOML key names for field names in errors
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := val.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				key := strings.TrimPrefix(e.Namespace(), "Config.")
				msgs = append(msgs, key+" "+validationMessage(e))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "has an invalid value"
	}
}

// DSN returns the MySQL connection string for the configured database
func (d *DatabaseConfig) DSN() string {
	return d.dsn(d.Name)
}

// ServerDSN returns a connection string with no database selected, for
// server-level statements such as CREATE DATABASE
func (d *DatabaseConfig) ServerDSN() string {
	return d.dsn("")
}

func (d *DatabaseConfig) dsn(dbName string) string {
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", d.Host, d.Port)
	mc.DBName = dbName
	mc.ParseTime = true
	if d.Charset != "" {
		mc.Params = map[string]string{"charset": d.Charset}
	}
	return mc.FormatDSN()
}

// DirectPath returns the full path of the self-contained source file
func (i *InputConfig) DirectPath() string {
	return filepath.Join(i.Dir, i.DirectFile)
}

// ShipmentPath returns the full path of the per-shipment product source file
func (i *InputConfig) ShipmentPath() string {
	return filepath.Join(i.Dir, i.ShipmentFile)
}

// RoutePath returns the full path of the route source file
func (i *InputConfig) RoutePath() string {
	return filepath.Join(i.Dir, i.RouteFile)
}

// Paths returns all input file paths in processing order
func (i *InputConfig) Paths() []string {
	return []string{i.DirectPath(), i.ShipmentPath(), i.RoutePath()}
}
