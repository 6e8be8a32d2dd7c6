// Command api serves the habit-nudge REST API.
//
// @title                       Habit Nudge API
// @version                     1.0
// @description                 Habit tracking with streaks, XP and daily nudges.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	_ "github.com/comitanigiacomo/habit-nudge/docs"
	"github.com/comitanigiacomo/habit-nudge/internal/platform/config"
	"github.com/comitanigiacomo/habit-nudge/internal/platform/logger"
)

//go:generate swag init --dir ../../ --generalInfo cmd/api/main.go --output ../../docs --outputTypes go --parseDependency --parseInternal

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", os.Stderr).WithError(err).Fatal("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, os.Stdout)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	if err := a.reconciler.Schedule(ctx, cfg.ReconcileSchedule); err != nil {
		log.WithError(err).Fatal("invalid reconcile schedule")
	}
	a.reconciler.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("habit-nudge api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()

	log.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
		return
	}

	log.Info("server stopped gracefully")
}
