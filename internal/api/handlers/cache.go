package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/nexconsult/cep-processor/internal/utils"
	"github.com/sirupsen/logrus"
)

// CacheHandler handles cache management requests
type CacheHandler struct {
	cacheService services.CacheServiceInterface
	logger       *logrus.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService services.CacheServiceInterface, logger *logrus.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		logger:       logger,
	}
}

// GetStats handles cache statistics request
// @Summary Get cache statistics
// @Description Get lookup cache statistics
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetStats(c *gin.Context) {
	stats, err := h.cacheService.GetStats(c.Request.Context())
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Failed to get cache statistics")

		h.fail(c, http.StatusInternalServerError, "Internal server error", "Failed to retrieve cache statistics", "CACHE_STATS_ERROR")
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"stats":     stats,
		"timestamp": time.Now(),
		"health":    h.cacheService.Health(),
	})
}

// Clear handles cache clear request
// @Summary Clear the cache
// @Description Drop every cached lookup result
// @Tags Cache
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/clear [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	requestID := c.GetString("request_id")

	if err := h.cacheService.Clear(c.Request.Context()); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to clear cache")

		h.fail(c, http.StatusInternalServerError, "Internal server error", "Failed to clear cache", "CACHE_CLEAR_ERROR")
		return
	}

	h.logger.WithField("request_id", requestID).Info("Cache cleared")

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Cache cleared successfully",
		"timestamp": time.Now(),
		"success":   true,
	})
}

// Delete handles removal of one cached CEP
// @Summary Delete a CEP from cache
// @Description Drop the cached lookup result of one CEP
// @Tags Cache
// @Param cep path string true "CEP to evict, with or without hyphen"
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/cache/{cep} [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	logger := h.logger.WithField("request_id", c.GetString("request_id"))

	cep := utils.CleanCEP(c.Param("cep"))
	if !utils.IsValidCEP(cep) {
		logger.WithField("cep", c.Param("cep")).Warn("Invalid CEP format for cache deletion")
		h.fail(c, http.StatusBadRequest, "Invalid CEP format", "CEP must contain exactly 8 digits", "INVALID_CEP")
		return
	}

	key := services.CacheKey(cep)
	logger = logger.WithField("cep", cep)

	exists, err := h.cacheService.Exists(c.Request.Context(), key)
	if err != nil {
		logger.WithError(err).Error("Failed to check cache key existence")
		h.fail(c, http.StatusInternalServerError, "Internal server error", "Failed to check cache", "CACHE_CHECK_ERROR")
		return
	}
	if !exists {
		h.fail(c, http.StatusNotFound, "Not found", "CEP not found in cache", "CEP_NOT_IN_CACHE")
		return
	}

	if err := h.cacheService.Delete(c.Request.Context(), key); err != nil {
		logger.WithError(err).Error("Failed to delete CEP from cache")
		h.fail(c, http.StatusInternalServerError, "Internal server error", "Failed to delete from cache", "CACHE_DELETE_ERROR")
		return
	}

	logger.Info("CEP deleted from cache")

	c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "CEP deleted from cache successfully",
		"cep":       utils.FormatCEP(cep),
		"timestamp": time.Now(),
		"success":   true,
	})
}

func (h *CacheHandler) fail(c *gin.Context, status int, title, message, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}
