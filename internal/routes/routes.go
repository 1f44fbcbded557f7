package routes

import (
	"net/http"
	"time"

	"github.com/damoang/angple-elements/internal/handler"
	"github.com/damoang/angple-elements/internal/middleware"
	"github.com/damoang/angple-elements/pkg/jwt"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps what the route table needs besides handlers
type Deps struct {
	JWT          *jwt.Manager
	Members      middleware.MemberLoader
	Pages        middleware.PageLoader
	Redis        *redis.Client
	AllowOrigins []string
	// AssetsDir served at /assets when images are stored locally
	AssetsDir string
}

// Setup configures global middleware and all API routes
func Setup(router *gin.Engine, elementHandler *handler.ElementHandler, deps Deps) {
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SecurityHeaders(),
		cors.New(corsConfig(deps.AllowOrigins)),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if deps.AssetsDir != "" {
		router.Static("/assets", deps.AssetsDir)
	}

	api := router.Group("/api",
		middleware.I18n(),
		middleware.MemberAuth(deps.JWT, deps.Members),
		middleware.CurrentPage(deps.Pages, "ElementAPI"),
	)
	writes := middleware.RateLimit(deps.Redis, middleware.DefaultRateLimitConfig())

	elements := api.Group("/elements")
	{
		elements.GET("", elementHandler.ListElements)
		elements.GET("/fields", elementHandler.GetNewForm)
		elements.GET("/:id", elementHandler.GetElement)
		elements.GET("/:id/fields", elementHandler.GetEditForm)
		elements.GET("/:id/versions", elementHandler.ListVersions)

		elements.POST("", writes, elementHandler.CreateElement)
		elements.PUT("/:id", writes, elementHandler.UpdateElement)
		elements.POST("/:id/publish", writes, elementHandler.PublishElement)
		elements.POST("/:id/unpublish", writes, elementHandler.UnpublishElement)
		elements.POST("/:id/revert", writes, elementHandler.RevertElement)
		elements.DELETE("/:id", writes, elementHandler.ArchiveElement)
		elements.DELETE("/:id/purge", writes, elementHandler.PurgeElement)

		elements.POST("/images", writes, elementHandler.UploadImage)
		elements.POST("/links", writes, elementHandler.CreateLink)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "Accept-Language", middleware.PageHeader, "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
