package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/habit-nudge/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/habit-nudge/internal/adapters/handler/http"
	"github.com/comitanigiacomo/habit-nudge/internal/adapters/metrics"
	"github.com/comitanigiacomo/habit-nudge/internal/adapters/repository"
	"github.com/comitanigiacomo/habit-nudge/internal/adapters/repository/migrations"
	"github.com/comitanigiacomo/habit-nudge/internal/core/domain"
	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
	"github.com/comitanigiacomo/habit-nudge/internal/core/workers"
	"github.com/comitanigiacomo/habit-nudge/internal/platform/config"
)

type stores struct {
	habits domain.HabitRepository
	users  interface {
		domain.UserRepository
		domain.XPLedger
	}
	nudges domain.NudgeRepository
}

// app holds everything main needs to serve and shut down.
type app struct {
	router     *gin.Engine
	reconciler *workers.XPReconciler
	db         *sqlx.DB
	redis      *redis.Client
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (stores, *sqlx.DB, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		mem := repository.NewInMemoryStore()
		return stores{habits: mem.Habits(), users: mem.Users(), nudges: mem.Nudges()}, nil, nil
	}

	log.Info("connecting to database")

	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DB.URL())
	if err != nil {
		return stores{}, nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrations.Up(cfg.DB.URL()); err != nil {
		db.Close()
		return stores{}, nil, err
	}

	log.Info("database connected and migrated")

	return stores{
		habits: repository.NewPostgresHabitRepository(db),
		users:  repository.NewPostgresUserRepository(db),
		nudges: repository.NewPostgresNudgeRepository(db),
	}, db, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	st, db, err := openStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{db: db}

	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.WithError(err).Warn("redis unavailable, continuing without cache")
		} else {
			a.redis = rdb
			st.habits = repository.NewCachedHabitRepository(st.habits, rdb, log)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	clock := services.Clock(services.SystemClock)

	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn, st.users)
	authSvc := services.NewAuthService(st.users, st.users, tokens, collector, log)
	userSvc := services.NewUserService(st.users, st.users, collector)
	habitSvc := services.NewHabitService(st.habits, clock, collector)
	dashboardSvc := services.NewDashboardService(st.habits, clock)
	nudgeSvc := services.NewNudgeService(st.nudges, habitSvc, st.users, clock, collector)

	a.reconciler = workers.NewXPReconciler(st.users, st.users, log)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(authSvc),
		UserHandler:      adapterHTTP.NewUserHandler(userSvc),
		HabitHandler:     adapterHTTP.NewHabitHandler(habitSvc),
		DashboardHandler: adapterHTTP.NewDashboardHandler(dashboardSvc),
		NudgeHandler:     adapterHTTP.NewNudgeHandler(nudgeSvc),
		TokenService:     tokens,
		DB:               db,
		Redis:            a.redis,
		Logger:           log,
		Metrics:          collector,
		Gatherer:         reg,
		RateLimit:        cfg.RateLimit.Limit,
		RateWindow:       cfg.RateLimit.Window,
		StartTime:        time.Now(),
	})

	return a, nil
}
