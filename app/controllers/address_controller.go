package controllers

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postal-engine/app/requests"
	"github.com/postal-engine/app/responses"
	"github.com/postal-engine/app/services"
	"github.com/postal-engine/postal"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// AddressController serves the address endpoints.
type AddressController struct {
	addressService *services.AddressService
	engine         *postal.Engine
	maxBatch       int
	logger         *zap.Logger
}

// NewAddressController creates the controller. maxBatch caps the
// addresses of one job; 0 keeps the binding limit.
func NewAddressController(addressService *services.AddressService, engine *postal.Engine, maxBatch int, logger *zap.Logger) *AddressController {
	return &AddressController{
		addressService: addressService,
		engine:         engine,
		maxBatch:       maxBatch,
		logger:         logger,
	}
}

// ParseAddress labels one address.
func (ac *AddressController) ParseAddress(c *gin.Context) {
	var req requests.ParseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	start := time.Now()
	result, hit, err := ac.addressService.ParseAddress(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.AddressResponse{
		Result:           result,
		ModelVersion:     ac.addressService.ModelVersion(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CacheHit:         hit,
	})
}

// ExpandAddress returns the normalized variants of one address.
func (ac *AddressController) ExpandAddress(c *gin.Context) {
	var req requests.ExpandAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	start := time.Now()
	result, hit, err := ac.addressService.ExpandAddress(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.AddressResponse{
		Result:           result,
		ModelVersion:     ac.addressService.ModelVersion(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		CacheHit:         hit,
	})
}

// ClassifyLanguage scores the languages of one address.
func (ac *AddressController) ClassifyLanguage(c *gin.Context) {
	var req requests.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	start := time.Now()
	result, err := ac.addressService.ClassifyLanguage(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.AddressResponse{
		Result:           result,
		ModelVersion:     ac.addressService.ModelVersion(),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// Dedupe compares two addresses.
func (ac *AddressController) Dedupe(c *gin.Context) {
	var req requests.DedupeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	res, err := ac.addressService.Dedupe(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.DedupeResponse{
		Status: res.Status.String(),
		Score:  res.Score,
		Match:  res.Match,
	})
}

// BatchProcess submits a background job.
func (ac *AddressController) BatchProcess(c *gin.Context) {
	var req requests.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if ac.maxBatch > 0 && len(req.Addresses) > ac.maxBatch {
		abortWithError(c, http.StatusBadRequest, "TOO_MANY_ADDRESSES",
			fmt.Sprintf("at most %d addresses per job", ac.maxBatch), nil)
		return
	}
	estimated := ac.addressService.EstimateBatchProcessingTime(len(req.Addresses))
	jobID := ac.addressService.SubmitBatch(req)

	c.JSON(http.StatusAccepted, responses.BatchResponse{
		JobID:            jobID,
		EstimatedSeconds: estimated,
		TotalAddresses:   len(req.Addresses),
		Message:          "job accepted",
	})
}

// GetJobStatus reports the progress of a job.
func (ac *AddressController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	status, err := ac.addressService.GetJobStatus(jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              status.JobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Failed:             status.Failed,
		Total:              status.Total,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults returns the results of a finished job, as JSON or, with
// ?format=ndjson, one result per line (optionally gzipped with ?gzip=1).
func (ac *AddressController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")
	if c.Query("format") == "ndjson" {
		ac.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}
	results, err := ac.addressService.GetJobResults(jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	success(c, "job results", results)
}

// HealthCheck reports liveness and which modules are resident.
func (ac *AddressController) HealthCheck(c *gin.Context) {
	modules := map[string]string{}
	for _, m := range []postal.Module{postal.ModuleParser, postal.ModuleExpansion, postal.ModuleTransliteration} {
		state := "unloaded"
		if ac.engine.Ready(m) {
			state = "ready"
		}
		modules[m.String()] = state
	}
	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(ac.addressService.GetStartTime()).String(),
		Version:   Version,
		Services:  modules,
	})
}

func (ac *AddressController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := ac.addressService.GetJobResultsStream(jobID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")
	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{ResponseWriter: c.Writer, gzWriter: gzWriter}
	}
	c.Status(http.StatusOK)

	encoder := json.NewEncoder(writer)
	for result := range resultChannel {
		if err := encoder.Encode(result); err != nil {
			ac.logger.Error("Failed to encode NDJSON result", zap.Error(err))
			break
		}
		writer.Flush()
	}
}

type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
