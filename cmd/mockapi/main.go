// Command mockapi runs a local catalog backend for the dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"github.com/jetdesk/jetadmin/internal/config"
	"github.com/jetdesk/jetadmin/internal/mockapi"
)

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "db-driver", Value: "sqlite", Usage: "sqlite or postgres", Sources: cli.EnvVars("MOCKAPI_DB_DRIVER")},
		&cli.StringFlag{Name: "sqlite-path", Value: "data/catalog.db", Usage: "SQLite file or file::memory: DSN", Sources: cli.EnvVars("MOCKAPI_SQLITE_PATH")},
		&cli.StringFlag{Name: "pg-host", Value: "localhost", Sources: cli.EnvVars("MOCKAPI_PG_HOST")},
		&cli.IntFlag{Name: "pg-port", Value: 5432, Sources: cli.EnvVars("MOCKAPI_PG_PORT")},
		&cli.StringFlag{Name: "pg-user", Value: "postgres", Sources: cli.EnvVars("MOCKAPI_PG_USER")},
		&cli.StringFlag{Name: "pg-password", Sources: cli.EnvVars("MOCKAPI_PG_PASSWORD")},
		&cli.StringFlag{Name: "pg-dbname", Value: "catalog", Sources: cli.EnvVars("MOCKAPI_PG_DBNAME")},
		&cli.StringFlag{Name: "pg-sslmode", Value: "disable", Sources: cli.EnvVars("MOCKAPI_PG_SSLMODE")},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error", Sources: cli.EnvVars("MOCKAPI_LOG_LEVEL")},
	}
}

func databaseConfig(cmd *cli.Command) (*config.DatabaseConfig, error) {
	cfg := &config.DatabaseConfig{
		Driver: cmd.String("db-driver"),
		SQLite: config.SQLiteConfig{Path: cmd.String("sqlite-path")},
		Postgres: config.PostgresConfig{
			Host:     cmd.String("pg-host"),
			Port:     int(cmd.Int("pg-port")),
			User:     cmd.String("pg-user"),
			Password: cmd.String("pg-password"),
			DBName:   cmd.String("pg-dbname"),
			SSLMode:  cmd.String("pg-sslmode"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open sets up logging and a migrated database. The returned cleanup closes
// both.
func open(cmd *cli.Command) (*gorm.DB, *slog.Logger, func(), error) {
	log, err := config.SetupLogger(&config.LogConfig{Level: cmd.String("log-level"), Format: "text"})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	closeLog := func() {
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}

	dbCfg, err := databaseConfig(cmd)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	db, err := config.SetupDatabase(dbCfg, log.Logger)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		closeLog()
	}
	if err := mockapi.Migrate(db); err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, log.Logger, cleanup, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	db, log, cleanup, err := open(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmd.Bool("seed") {
		report, err := mockapi.Seed(ctx, db)
		if err != nil {
			return err
		}
		log.Info("catalog seeded", slog.Int("aircraft", report.Aircraft), slog.Int("categories", report.Categories))
	}

	srv, err := mockapi.New(db, mockapi.Options{UploadDir: cmd.String("uploads"), Logger: log})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx, cmd.String("addr"))
}

func seed(ctx context.Context, cmd *cli.Command) error {
	db, log, cleanup, err := open(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := mockapi.Seed(ctx, db)
	if err != nil {
		return err
	}
	if report.Aircraft == 0 {
		log.Info("catalog already has listings, nothing seeded")
		return nil
	}
	log.Info("catalog seeded",
		slog.Int("categories", report.Categories),
		slog.Int("brands", report.Brands),
		slog.Int("authors", report.Authors),
		slog.Int("aircraft", report.Aircraft))
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "mockapi",
		Usage: "Local catalog backend for the JetAdmin dashboard",
		Flags: databaseFlags(),
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the catalog REST API",
				Action: serve,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: ":5000", Usage: "listen address", Sources: cli.EnvVars("MOCKAPI_ADDR")},
					&cli.StringFlag{Name: "uploads", Value: "data/uploads", Usage: "directory for uploaded images", Sources: cli.EnvVars("MOCKAPI_UPLOADS")},
					&cli.BoolFlag{Name: "seed", Usage: "insert sample documents into an empty catalog first"},
				},
			},
			{
				Name:   "seed",
				Usage:  "Insert sample documents into an empty catalog",
				Action: seed,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
