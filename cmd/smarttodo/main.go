package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smart-todo/internal/config"
	"smart-todo/internal/jira"
	"smart-todo/internal/nlp"
	"smart-todo/internal/repository"
	"smart-todo/internal/server"
	"smart-todo/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	parser := nlp.NewClient(cfg.OllamaHost, cfg.OllamaModel)
	taskSvc := service.NewTaskService(taskRepo, parser)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	recurrenceSvc := service.NewRecurrenceService(taskRepo, logger)

	scheduler := service.NewSchedulerService(time.Local)
	if cfg.RecurrenceInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.RecurrenceInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			reopened, err := recurrenceSvc.RollDue(jobCtx, time.Now())
			if err != nil {
				logger.Warn("recurrence roll failed", zap.Error(err))
				return
			}
			if reopened > 0 {
				logger.Info("reopened recurring tasks", zap.Int("count", reopened))
			}
		}); err != nil {
			logger.Fatal("schedule recurrence roll", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := server.New(cfg, logger, taskSvc, authSvc, jira.NewClient())
	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started",
			zap.String("addr", cfg.ListenAddr),
			zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped with error", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
