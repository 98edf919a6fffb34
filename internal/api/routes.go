package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/auth"
	"jobtracker/internal/config"
	"jobtracker/internal/dashboard"
	"jobtracker/internal/jobs"
	"jobtracker/internal/users"
)

// Deps 汇总业务路由需要的依赖。Redis 与 Exports 可以为 nil。
type Deps struct {
	DB     *gorm.DB
	Tokens *auth.TokenService
	Redis  redis.UniversalClient
	Auth   config.AuthConfig
	// Exports 为 nil 时不注册 /api/exports。
	Exports      ExportStorage
	ExportURLTTL time.Duration
}

// RegisterRoutes 在 /api 下注册业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	userStore := users.NewStore(deps.DB)
	jobRepo := jobs.NewRepository(deps.DB)

	authHandler := NewAuthHandler(userStore, deps.Tokens, deps.Redis, deps.Auth)
	jobHandler := NewJobHandler(jobRepo)
	userHandler := NewUserHandler(userStore)
	dashboardHandler := NewDashboardHandler(dashboard.NewAggregator(jobRepo))
	authMiddleware := middleware.AuthMiddleware(deps.Tokens)

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/register", authHandler.Register)
		apiGroup.POST("/login", authHandler.Login)

		protected := apiGroup.Group("")
		protected.Use(authMiddleware)
		{
			protected.GET("/jobs", jobHandler.ListJobs)
			protected.POST("/jobs", jobHandler.CreateJob)
			protected.GET("/jobs/:id", jobHandler.GetJob)
			protected.PUT("/jobs/:id", jobHandler.UpdateJob)
			protected.DELETE("/jobs/:id", jobHandler.DeleteJob)

			protected.GET("/user", userHandler.GetProfile)
			protected.PUT("/user", userHandler.UpdateProfile)
			protected.PUT("/user/password", userHandler.ChangePassword)

			protected.GET("/dashboard", dashboardHandler.GetStats)

			if deps.Exports != nil {
				exportHandler := NewExportHandler(jobRepo, deps.Exports, deps.ExportURLTTL)
				protected.POST("/exports", exportHandler.CreateExport)
			}
		}
	}
}
