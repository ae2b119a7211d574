package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"mediaup/internal/config"
	"mediaup/internal/store"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	down := flag.Bool("down", false, "roll back every applied migration")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fatal("failed to load config", "err", err)
	}
	if cfg.ReportDBDSN == "" {
		fatal("REPORT_DB_DSN is required")
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}

	db, err := store.Open(cfg.ReportDBDSN)
	if err != nil {
		fatal("failed to open report db", "err", err)
	}
	defer db.Close()

	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		fatal("failed to create migration driver", "err", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		fatal("failed to create migration", "err", err)
	}

	apply, direction := m.Up, "up"
	if *down {
		apply, direction = m.Down, "down"
	}
	if err := apply(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal("migration failed", "direction", direction, "err", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		fatal("failed to read migration version", "err", err)
	}
	slog.Info("migration completed", "direction", direction, "version", version, "dirty", dirty)
}

func fatal(msg string, attrs ...any) {
	slog.Error(msg, attrs...)
	os.Exit(1)
}
