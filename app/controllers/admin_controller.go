package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/app/services"
	"github.com/postal-engine/internal/search"
)

// AdminController serves module, cache and index management.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController creates the controller.
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// SetupModules loads model modules.
func (ac *AdminController) SetupModules(c *gin.Context) {
	var req requests.ModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	loaded, err := ac.adminService.SetupModules(c.Request.Context(), req.Modules)
	if err != nil {
		ac.logger.Error("Module setup failed", zap.Strings("modules", req.Modules), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ModulesResponse{Loaded: loaded})
}

// TeardownModules releases model modules.
func (ac *AdminController) TeardownModules(c *gin.Context) {
	var req requests.ModulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	loaded, err := ac.adminService.TeardownModules(req.Modules)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.ModulesResponse{Loaded: loaded})
}

// GetModules lists resident modules.
func (ac *AdminController) GetModules(c *gin.Context) {
	c.JSON(http.StatusOK, responses.ModulesResponse{Loaded: ac.adminService.LoadedModules()})
}

// InvalidateCache drops cached results of other model versions.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c, err)
			return
		}
	}
	if v := c.Query("model_version"); v != "" {
		req.ModelVersion = v
	}

	start := time.Now()
	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.ModelVersion); err != nil {
		ac.logger.Error("Cache invalidation failed", zap.Error(err))
		writeError(c, err)
		return
	}
	elapsed := time.Since(start)
	ac.logger.Info("Cache invalidated",
		zap.String("model_version", req.ModelVersion),
		zap.Duration("duration", elapsed))

	success(c, "cache invalidated", map[string]interface{}{
		"model_version":      req.ModelVersion,
		"processing_time_ms": elapsed.Milliseconds(),
	})
}

// GetStats reports service statistics.
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// IndexAddresses adds addresses to the search index.
func (ac *AdminController) IndexAddresses(c *gin.Context) {
	var req requests.IndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	start := time.Now()
	n, err := ac.adminService.IndexAddresses(c.Request.Context(), req.Addresses)
	if err != nil {
		ac.logger.Error("Indexing failed", zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.IndexResponse{
		Indexed:          n,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// SearchAddresses queries the search index: ?q=...&language=..&country=..&limit=..
func (ac *AdminController) SearchAddresses(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		abortWithError(c, http.StatusBadRequest, "MISSING_QUERY", "query parameter q is required", nil)
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 1 {
			abortWithError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", nil)
			return
		}
		limit = l
	}
	filter := search.Filter{Language: c.Query("language"), Country: c.Query("country")}

	hits, err := ac.adminService.SearchAddresses(c.Request.Context(), q, filter, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.SearchResponse{Query: q, Hits: hits})
}
