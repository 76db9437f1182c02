// Command seed-calendar inserts a work calendar entry for every date of a
// year. Existing dates are left as they are.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"hr-attendance-backend/internal/config"
	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/repository"
	"hr-attendance-backend/internal/service"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "calendar year to seed")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "err", err)
			os.Exit(1)
		}
	}

	svc := service.CalendarService{Store: repository.CalendarRepository{DB: pg}, Logger: logger}
	inserted, err := svc.SeedYear(ctx, *year)
	if err != nil {
		logger.Error("failed to seed calendar", "year", *year, "err", err)
		os.Exit(1)
	}
	logger.Info("done", "year", *year, "inserted", inserted)
}
