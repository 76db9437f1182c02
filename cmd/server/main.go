package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hr-attendance-backend/internal/config"
	"hr-attendance-backend/internal/db"
	"hr-attendance-backend/internal/handler"
	"hr-attendance-backend/internal/metrics"
	"hr-attendance-backend/internal/repository"
	"hr-attendance-backend/internal/server"
	"hr-attendance-backend/internal/service"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	employeeRepo := repository.EmployeeRepository{DB: pg}
	calendarRepo := repository.CalendarRepository{DB: pg}
	attendanceRepo := repository.AttendanceRepository{DB: pg}

	// services
	recorder := metrics.New(prometheus.DefaultRegisterer)
	authSvc := service.AuthService{Users: userRepo, JWTSecret: cfg.JWTSecret, AccessTokenTTL: cfg.AccessTokenTTL, Logger: logger}
	calendarSvc := service.CalendarService{Store: calendarRepo, Logger: logger}
	attendanceSvc := service.AttendanceService{
		Attendance: attendanceRepo,
		Calendar:   calendarSvc,
		Employees:  employeeRepo,
		Clock:      clk,
		Metrics:    recorder,
		Logger:     logger,
		PageSize:   cfg.AttendancePageSize,
	}

	router := server.NewRouter(cfg, logger, prometheus.DefaultGatherer, server.Handlers{
		Health:     handler.HealthHandler{DB: pg},
		Auth:       handler.AuthHandler{Service: &authSvc},
		Attendance: handler.AttendanceHandler{Service: &attendanceSvc, Location: cfg.Timezone},
		Calendar:   handler.CalendarHandler{Service: &calendarSvc, Clock: clk},
		Employees:  handler.EmployeeHandler{Repo: employeeRepo},
		Docs:       handler.DocsHandler{},
	})

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
