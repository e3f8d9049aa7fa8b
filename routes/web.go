package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postal-engine/app/controllers"
)

var endpoints = map[string]string{
	"parse":            "POST /v1/addresses/parse",
	"expand":           "POST /v1/addresses/expand",
	"classify":         "POST /v1/addresses/classify",
	"dedupe":           "POST /v1/addresses/dedupe",
	"batch":            "POST /v1/addresses/jobs",
	"job_status":       "GET /v1/addresses/jobs/:jobID/status",
	"job_results":      "GET /v1/addresses/jobs/:jobID/results",
	"modules":          "GET /v1/admin/modules",
	"modules_setup":    "POST /v1/admin/modules/setup",
	"modules_teardown": "POST /v1/admin/modules/teardown",
	"cache_invalidate": "POST /v1/admin/cache/invalidate",
	"stats":            "GET /v1/admin/stats",
	"index":            "POST /v1/admin/index",
	"search":           "GET /v1/admin/index/search",
	"health":           "GET /health",
}

// SetupWebRoutes registers the service index.
func SetupWebRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Postal Engine",
			"version": controllers.Version,
			"docs":    "/docs",
		})
	})
	router.GET("/docs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api":       "Postal Engine API v1",
			"endpoints": endpoints,
		})
	})
}
