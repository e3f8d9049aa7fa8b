package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-engine/app/controllers"
)

// SetupAPIRoutes registers the /v1 endpoints.
func SetupAPIRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.POST("/parse", addressController.ParseAddress)
			addresses.POST("/expand", addressController.ExpandAddress)
			addresses.POST("/classify", addressController.ClassifyLanguage)
			addresses.POST("/dedupe", addressController.Dedupe)
			addresses.POST("/jobs", addressController.BatchProcess)
			addresses.GET("/jobs/:jobID/status", addressController.GetJobStatus)
			addresses.GET("/jobs/:jobID/results", addressController.GetJobResults)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/modules/setup", adminController.SetupModules)
			admin.POST("/modules/teardown", adminController.TeardownModules)
			admin.GET("/modules", adminController.GetModules)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
			admin.POST("/index", adminController.IndexAddresses)
			admin.GET("/index/search", adminController.SearchAddresses)
		}

		v1.GET("/health", addressController.HealthCheck)
	}
}

// SetupHealthRoutes registers the health checks.
func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.HealthCheck)
	router.GET("/live", addressController.HealthCheck)
}

// SetupAllRoutes installs middleware and every route on router.
func SetupAllRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, addressController)
	SetupAPIRoutes(router, addressController, adminController)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(accessLog(logger))
}
