package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/config"
	"jobtracker/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：恢复、关联 ID、请求日志与指标中间件，
// 以及 /health 与 /metrics 两个运维端点。业务路由由 RegisterRoutes 注册。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	if cfg != nil && !cfg.API.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			middleware.LoggerFromContext(c).Error("panic recovered", slog.Any("panic", recovered))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": fmt.Sprintf("Server error: %v", recovered),
			})
		}),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware("/metrics", "/health"),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NoRoute(func(c *gin.Context) {
		NotFound(c, "Not found")
	})

	return router
}
