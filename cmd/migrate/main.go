package main

import (
	"database/sql"
	"flag"
	"log/slog"
	"os"

	"github.com/colemarsh/gatehouse/internal/config"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dir := flag.String("dir", "migrations", "directory with migration files")
	command := flag.String("command", "up", "goose command: up, down, status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Error("failed to set goose dialect", slog.Any("error", err))
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = goose.Up(db, *dir)
	case "down":
		err = goose.Down(db, *dir)
	case "status":
		err = goose.Status(db, *dir)
	default:
		logger.Error("unknown command", slog.String("command", *command))
		os.Exit(1)
	}

	if err != nil {
		logger.Error("migration failed", slog.String("command", *command), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("migration complete", slog.String("command", *command))
}
