package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// HealthChecker reports the health of every wired service keyed by name
type HealthChecker interface {
	Health() map[string]interface{}
}

// HealthHandler handles health check requests
type HealthHandler struct {
	checker   HealthChecker
	logger    *logrus.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker HealthChecker, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checker:   checker,
		logger:    logger,
		startTime: time.Now(),
	}
}

// GetHealth handles general health check
// @Summary Health check
// @Description Get the health status of the API and its dependencies
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandler) GetHealth(c *gin.Context) {
	servicesHealth := h.checker.Health()
	now := time.Now()

	response := models.HealthResponse{
		Status:    overallStatus(servicesHealth),
		Timestamp: now,
		Version:   Version,
		Services:  make(map[string]models.ServiceInfo, len(servicesHealth)),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	for name, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}

		info := models.ServiceInfo{LastCheck: now}
		if status, ok := healthMap["status"].(string); ok {
			info.Status = status
		}
		if errorMsg, ok := healthMap["error"].(string); ok {
			info.Error = errorMsg
		}
		response.Services[name] = info
	}

	httpStatus := http.StatusOK
	if response.Status == "unhealthy" {
		h.logger.WithField("services", servicesHealth).Warn("Health check failed")
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetReadiness handles readiness probe
// @Summary Readiness check
// @Description Check if the database and the processor are ready to serve runs
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	servicesHealth := h.checker.Health()

	issues := make([]string, 0)
	for _, name := range []string{"database", "processor"} {
		healthMap, ok := servicesHealth[name].(map[string]interface{})
		if !ok {
			issues = append(issues, name+" is not configured")
			continue
		}
		if healthMap["status"] == "unhealthy" {
			issues = append(issues, name+" is unhealthy")
		}
	}

	ready := len(issues) == 0
	response := map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now(),
		"services":  servicesHealth,
	}
	if !ready {
		response["issues"] = issues
	}

	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, response)
}

// GetLiveness handles liveness probe
// @Summary Liveness check
// @Description Check if the API is alive and responding
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"version":   Version,
	})
}

// overallStatus is unhealthy if any service is, degraded if any service is
func overallStatus(servicesHealth map[string]interface{}) string {
	status := "healthy"
	for _, serviceHealth := range servicesHealth {
		healthMap, ok := serviceHealth.(map[string]interface{})
		if !ok {
			continue
		}
		switch healthMap["status"] {
		case "unhealthy":
			return "unhealthy"
		case "degraded":
			status = "degraded"
		}
	}
	return status
}
