package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/comitanigiacomo/habit-nudge/internal/adapters/cache"
	"github.com/comitanigiacomo/habit-nudge/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/habit-nudge/internal/adapters/metrics"
	"github.com/comitanigiacomo/habit-nudge/internal/core/services"
)

type RouterDependencies struct {
	AuthHandler      *AuthHandler
	UserHandler      *UserHandler
	HabitHandler     *HabitHandler
	DashboardHandler *DashboardHandler
	NudgeHandler     *NudgeHandler
	TokenService     *services.TokenService
	DB               *sqlx.DB // nil with the in-memory store
	Redis            *redis.Client
	Logger           logrus.FieldLogger
	Metrics          *metrics.Collector
	Gatherer         prometheus.Gatherer
	RateLimit        int
	RateWindow       time.Duration
	StartTime        time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	var recorder middleware.HTTPRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger, recorder))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:          12 * time.Hour,
	}))

	if deps.RateLimit > 0 {
		router.Use(middleware.RateLimiter(deps.Redis, deps.RateLimit, deps.RateWindow, deps.Logger))
	}

	router.GET("/health", func(c *gin.Context) {
		dbStatus := "disabled"
		if deps.DB != nil {
			dbStatus = "connected"
			if err := deps.DB.PingContext(c.Request.Context()); err != nil {
				dbStatus = "unreachable"
			}
		}

		redisStatus := cache.Status(c.Request.Context(), deps.Redis)

		statusCode := http.StatusOK
		status := "ok"
		if dbStatus == "unreachable" || redisStatus == "unreachable" {
			statusCode = http.StatusServiceUnavailable
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"database": dbStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	})

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.UserHandler.RegisterRoutes(protected)
		deps.HabitHandler.RegisterRoutes(protected)
		deps.DashboardHandler.RegisterRoutes(protected)
		deps.NudgeHandler.RegisterRoutes(protected)
	}

	return router
}
