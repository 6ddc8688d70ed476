package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kgr33n/kblog/config"
	"github.com/kgr33n/kblog/controllers"
	"github.com/kgr33n/kblog/middleware"
	"github.com/kgr33n/kblog/utils"
)

// SetupRouter wires middleware and the /api/v1 route tree.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()

	gin.SetMode(cfg.GinMode)
	r := gin.New()

	ginLogger, err := utils.NewRollingFileLogger(
		cfg.GinPath, cfg.LogLevel,
		cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress,
	)
	if err != nil {
		ginLogger = utils.Logger
	}
	r.Use(utils.Ginzap(ginLogger, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(ginLogger, true))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/email-code", controllers.SendEmailCode)
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.POST("/logout", middleware.AuthRequired(), controllers.Logout)
			auth.GET("/me", middleware.AuthRequired(), controllers.Me)
		}

		users := api.Group("/users")
		{
			users.GET("/:username", controllers.GetUserPublicByUsername)
		}

		blog := api.Group("/blog")
		{
			blog.GET("/posts", controllers.ListPosts)
			blog.GET("/posts/:slug", controllers.GetPostBySlug)
			blog.GET("/posts/:slug/comments", controllers.ListComments)
			blog.POST("/posts/:slug/comments", middleware.AuthRequired(), controllers.CreateComment)
		}

		comments := api.Group("/comments", middleware.AuthRequired())
		{
			comments.POST("/:id/like", controllers.ToggleLike)
			comments.DELETE("/:id", controllers.DeleteComment)
		}

		polls := api.Group("/polls")
		{
			polls.GET("/:name/results", controllers.PollResults)
			polls.POST("/:name/vote", middleware.AuthRequired(), controllers.CastVote)
		}

		admin := api.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", controllers.Dashboard)
			admin.GET("/users", controllers.ListUsers)
			admin.GET("/posts", controllers.AdminListPosts)
			admin.POST("/sync-posts", controllers.SyncPosts)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, http.StatusNotFound, "route not found")
	})

	return r
}
