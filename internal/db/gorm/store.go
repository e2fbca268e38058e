// Package gorm provides GORM-based database operations for prompt-tracker.
package gorm

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultBusyTimeoutMS is how long SQLite waits on a locked database before
// returning SQLITE_BUSY.
const DefaultBusyTimeoutMS = 5000

// Store represents the GORM database connection.
type Store struct {
	DB     *gorm.DB
	sqlDB  *sql.DB
	driver string
}

// Config holds database configuration.
type Config struct {
	Driver        string          // "sqlite" (default) or "postgres"
	Path          string          // SQLite file path, or Postgres DSN
	MaxConns      int             // Maximum number of open connections (default: 4)
	BusyTimeoutMS int             // SQLite busy timeout (default: 5000)
	LogLevel      logger.LogLevel // GORM log level (logger.Silent for production)
}

// NewStore opens the database, runs migrations and applies SQLite pragmas.
func NewStore(cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	dialector, err := openDialector(driver, cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		// Surface unique violations as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{
		DB:     db,
		sqlDB:  sqlDB,
		driver: driver,
	}

	if err := runMigrations(db, driver); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if driver == DriverSQLite {
		// WAL lets readers (report, statusline) run alongside hook writers
		if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		if _, err := sqlDB.Exec("PRAGMA synchronous=NORMAL"); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("set synchronous mode: %w", err)
		}
	}

	return store, nil
}

// openDialector builds the gorm dialector for the configured driver.
// SQLite parent directories are created on demand.
func openDialector(driver string, cfg Config) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		busy := cfg.BusyTimeoutMS
		if busy <= 0 {
			busy = DefaultBusyTimeoutMS
		}
		// Pragmas in the DSN apply to every pooled connection
		dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)", cfg.Path, busy)
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		if cfg.Path == "" {
			return nil, fmt.Errorf("postgres dsn is required")
		}
		return postgres.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.driver
}
