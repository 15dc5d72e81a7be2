package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shipdata/loader/internal/infrastructure/config"
	"github.com/shipdata/loader/internal/infrastructure/logger"
	"go.uber.org/zap"

	_ "github.com/go-sql-driver/mysql"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file (default: config.toml in . or ./configs)")
	flag.Parse()

	// Initialize logger
	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Checking MySQL connectivity",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("user", cfg.Database.User),
		zap.String("database", cfg.Database.Name),
	)

	// Server-level connection, no database selected yet
	server, err := sql.Open("mysql", cfg.Database.ServerDSN())
	if err != nil {
		log.Fatal("Failed to open server connection", zap.Error(err))
	}
	defer server.Close()
	server.SetConnMaxLifetime(time.Minute)

	if err := server.Ping(); err != nil {
		log.Fatal("Failed to reach MySQL server", zap.Error(err))
	}

	var version string
	if err := server.QueryRow("SELECT VERSION()").Scan(&version); err != nil {
		log.Fatal("Failed to query server version", zap.Error(err))
	}
	log.Info("Connected to MySQL server", zap.String("version", version))

	stmt := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database.Name)
	if cfg.Database.Charset != "" {
		stmt += " CHARACTER SET " + cfg.Database.Charset
	}
	if _, err := server.Exec(stmt); err != nil {
		log.Fatal("Failed to create database", zap.Error(err))
	}
	log.Info("Database is ready", zap.String("database", cfg.Database.Name))

	// Reconnect with the database selected for the scratch round trip
	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database connection", zap.Error(err))
	}
	defer db.Close()

	if err := roundTrip(db, log); err != nil {
		log.Fatal("Scratch table round trip failed", zap.Error(err))
	}

	log.Info("MySQL connectivity check passed")
}

// roundTrip creates a scratch table, writes one row, reads it back, and
// drops the table again.
func roundTrip(db *sql.DB, log *zap.Logger) error {
	const table = "dbcheck_scratch"

	if _, err := db.Exec("CREATE TABLE IF NOT EXISTS " + table + " (id INT AUTO_INCREMENT PRIMARY KEY, note VARCHAR(255) NOT NULL)"); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	log.Info("Scratch table created", zap.String("table", table))

	note := uuid.NewString()
	if _, err := db.Exec("INSERT INTO "+table+" (note) VALUES (?)", note); err != nil {
		return fmt.Errorf("insert row: %w", err)
	}

	var got string
	if err := db.QueryRow("SELECT note FROM "+table+" WHERE note = ?", note).Scan(&got); err != nil {
		return fmt.Errorf("read row back: %w", err)
	}
	if got != note {
		return fmt.Errorf("read back %q, wrote %q", got, note)
	}
	log.Info("Row inserted and read back", zap.String("note", note))

	if _, err := db.Exec("DROP TABLE " + table); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	log.Info("Scratch table dropped")

	return nil
}
