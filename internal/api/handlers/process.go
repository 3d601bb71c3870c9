package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cep-processor/internal/input"
	"github.com/nexconsult/cep-processor/internal/models"
	"github.com/nexconsult/cep-processor/internal/services"
	"github.com/nexconsult/cep-processor/internal/utils"
	"github.com/sirupsen/logrus"
)

// ProcessHandler starts processing runs
type ProcessHandler struct {
	processor services.ProcessorInterface
	inputPath string
	logger    *logrus.Logger
}

// NewProcessHandler creates a new process handler reading inputPath when the
// request carries no CEP list
func NewProcessHandler(processor services.ProcessorInterface, inputPath string, logger *logrus.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		inputPath: inputPath,
		logger:    logger,
	}
}

// Process handles a processing run
// @Summary Process CEPs
// @Description Look up every CEP of the input file, or of the optional body, and persist the results
// @Tags Process
// @Accept json
// @Produce json
// @Param request body models.ProcessRequest false "CEPs to process instead of the input file"
// @Success 200 {object} models.RunReport
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/process [post]
func (h *ProcessHandler) Process(c *gin.Context) {
	requestID := c.GetString("request_id")
	logger := h.logger.WithField("request_id", requestID)

	var req models.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.WithError(err).Warn("Invalid process request body")
		h.fail(c, http.StatusBadRequest, "Invalid request", err.Error(), "INVALID_REQUEST")
		return
	}

	// a run outlives a disconnecting client
	ctx := context.WithoutCancel(c.Request.Context())

	var (
		report *models.RunReport
		err    error
	)
	if req.CEPs != nil {
		ceps := utils.UniqueCEPs(req.CEPs)
		logger.WithFields(logrus.Fields{
			"received": len(req.CEPs),
			"unique":   len(ceps),
		}).Info("Processing CEPs from request body")

		if len(ceps) == 0 {
			err = services.ErrEmptyInput
		} else {
			report, err = h.processor.Process(ctx, ceps)
		}
	} else {
		logger.WithField("path", h.inputPath).Info("Processing CEPs from input file")
		report, err = h.processor.ProcessFile(ctx, h.inputPath)
	}

	if err != nil {
		status, code := classify(err)
		logger.WithFields(logrus.Fields{
			"error": err.Error(),
			"code":  code,
		}).Warn("Processing run rejected")
		h.fail(c, status, http.StatusText(status), err.Error(), code)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ProcessHandler) fail(c *gin.Context, status int, title, message, code string) {
	c.JSON(status, models.ErrorResponse{
		Error:     title,
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
		Path:      c.Request.URL.Path,
	})
}

// classify maps a run error to its HTTP status and error code
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, input.ErrInputNotFound):
		return http.StatusNotFound, "INPUT_NOT_FOUND"
	case errors.Is(err, input.ErrNoColumns):
		return http.StatusBadRequest, "NO_COLUMNS"
	case errors.Is(err, input.ErrNoCodes), errors.Is(err, services.ErrEmptyInput):
		return http.StatusBadRequest, "NO_CEPS"
	case errors.Is(err, services.ErrRunInProgress):
		return http.StatusConflict, "RUN_IN_PROGRESS"
	default:
		return http.StatusInternalServerError, "PROCESSING_ERROR"
	}
}
