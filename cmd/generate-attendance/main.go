// Command generate-attendance materializes today's attendance records for
// every active employee. It is meant to run once a day from a scheduler and
// is safe to repeat.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hr-attendance-backend/internal/clock"
	"hr-attendance-backend/internal/config"
	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/domain"
	"hr-attendance-backend/internal/repository"
	"hr-attendance-backend/internal/service"
)

func main() {
	date := flag.String("date", "", "generate for this date (YYYY-MM-DD) instead of today")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the run after this long")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	clk, err := cfg.Clock()
	if err != nil {
		logger.Error("failed to configure clock", "err", err)
		os.Exit(1)
	}
	if *date != "" {
		at, err := clock.Parse(*date, cfg.Timezone)
		if err != nil {
			logger.Error("invalid -date", "value", *date, "err", err)
			os.Exit(2)
		}
		clk = clock.Fixed{At: at}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pg, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	svc := service.AttendanceService{
		Attendance: repository.AttendanceRepository{DB: pg},
		Calendar:   service.CalendarService{Store: repository.CalendarRepository{DB: pg}, Logger: logger},
		Employees:  repository.EmployeeRepository{DB: pg},
		Clock:      clk,
		Logger:     logger,
	}

	res, err := svc.GenerateDaily(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			logger.Error("attendance generation misconfigured", "err", err)
		} else {
			logger.Error("attendance generation failed", "err", err)
		}
		pg.Close()
		os.Exit(1)
	}
	logger.Info("done",
		"date", res.Date.Format(domain.DateLayout),
		"created", res.Created,
		"skipped", res.Skipped,
		"calendar_status", string(res.CalendarStatus),
	)
}
