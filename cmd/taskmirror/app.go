package main

import (
	"fmt"
	"log/slog"

	"github.com/knollbase/taskmirror/internal/config"
	"github.com/knollbase/taskmirror/internal/jobservice"
	"github.com/knollbase/taskmirror/internal/platform/logger"
	"github.com/knollbase/taskmirror/internal/task"
)

// application holds the wired components for the running process.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	monitor *task.Monitor
}

// newApplication loads configuration and wires the job-service client and
// the sync engine.
func newApplication() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"job_service_url", cfg.JobService.BaseURL,
		"poll_interval", cfg.Poll.Interval.String(),
		"poll_enabled", cfg.Poll.Enabled)

	client, err := jobservice.New(jobservice.Config{
		BaseURL:        cfg.JobService.BaseURL,
		AuthToken:      cfg.JobService.AuthToken,
		RequestTimeout: cfg.JobService.RequestTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service client: %w", err)
	}

	return &application{
		config:  cfg,
		logger:  log,
		monitor: task.NewMonitor(client, log),
	}, nil
}

// cleanup tears down background state before the process exits.
func (app *application) cleanup() {
	app.monitor.Reset()
}
