package handlers

import (
	"github.com/SscSPs/smartlens_backend/cmd/docs"
	portssvc "github.com/SscSPs/smartlens_backend/internal/core/ports/services"
	"github.com/SscSPs/smartlens_backend/internal/middleware"
	"github.com/SscSPs/smartlens_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	health HealthChecker,
) {
	r.GET("/health", getHealth(health))

	api := r.Group("/api")
	api.GET("", getAPIInfo)

	registerAccountRoutes(api, cfg, services.Account, services.Ledger)
	registerOCRRoutes(api, cfg, services.Usage)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)

	// Everything else is the single-page app, when one is bundled.
	if cfg.StaticDir != "" {
		r.NoRoute(middleware.SPAHandler(cfg.StaticDir))
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
