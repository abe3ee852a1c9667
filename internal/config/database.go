package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DatabaseConfig holds the development backend's storage settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite settings. Path may be a file or a "file::memory:" DSN.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

var sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate normalizes the database settings and checks the selected driver's
// required fields.
func (d *DatabaseConfig) Validate() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	switch d.Driver {
	case "sqlite":
		d.SQLite.Path = strings.TrimSpace(d.SQLite.Path)
		if d.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required when driver is sqlite")
		}
	case "postgres":
		p := &d.Postgres
		p.Host = strings.TrimSpace(p.Host)
		p.User = strings.TrimSpace(p.User)
		p.DBName = strings.TrimSpace(p.DBName)
		p.SSLMode = strings.TrimSpace(p.SSLMode)
		if p.SSLMode == "" {
			p.SSLMode = "disable"
		}
		switch {
		case p.Host == "":
			return errors.New("database.postgres.host is required when driver is postgres")
		case p.Port < 1 || p.Port > 65535:
			return fmt.Errorf("invalid database.postgres.port %d: must be between 1 and 65535", p.Port)
		case p.User == "":
			return errors.New("database.postgres.user is required when driver is postgres")
		case p.DBName == "":
			return errors.New("database.postgres.dbname is required when driver is postgres")
		}
		valid := false
		for _, m := range sslModes {
			if p.SSLMode == m {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid database.postgres.sslmode %q: must be one of %s", p.SSLMode, strings.Join(sslModes, ", "))
		}
	default:
		return fmt.Errorf("invalid database.driver %q: must be one of %q, %q", d.Driver, "sqlite", "postgres")
	}

	d.Pool.ConnMaxLifetime = strings.TrimSpace(d.Pool.ConnMaxLifetime)
	if d.Pool.ConnMaxLifetime != "" {
		if err := positiveDuration("database.pool.conn_max_lifetime", d.Pool.ConnMaxLifetime); err != nil {
			return err
		}
	}
	return nil
}

// SetupDatabase opens a gorm connection for cfg. SQL statements are logged
// only when log at debug level is enabled.
func SetupDatabase(cfg *DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		if !isMemorySQLite(cfg.SQLite.Path) {
			if dir := filepath.Dir(cfg.SQLite.Path); dir != "" && dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
				}
			}
		}
		dialector = sqlite.Open(cfg.SQLite.Path)
	case "postgres":
		dialector = postgres.Open(buildPostgresDSN(&cfg.Postgres))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logMode := gormlogger.Warn
	if log.Enabled(context.Background(), slog.LevelDebug) {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logMode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := configurePool(db, &cfg.Pool); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	log.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_idle_conns", orDefault(cfg.Pool.MaxIdleConns, 10)),
		slog.Int("max_open_conns", orDefault(cfg.Pool.MaxOpenConns, 100)),
	)
	return db, nil
}

func isMemorySQLite(path string) bool {
	return path == ":memory:" || strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func configurePool(db *gorm.DB, pool *PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(orDefault(pool.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(pool.MaxOpenConns, 100))

	lifetime := time.Hour
	if pool.ConnMaxLifetime != "" {
		lifetime, err = time.ParseDuration(pool.ConnMaxLifetime)
		if err != nil {
			return fmt.Errorf("invalid pool.conn_max_lifetime %q: %w", pool.ConnMaxLifetime, err)
		}
		if lifetime <= 0 {
			return fmt.Errorf("invalid pool.conn_max_lifetime %q: must be greater than 0", pool.ConnMaxLifetime)
		}
	}
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func buildPostgresDSN(cfg *PostgresConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
