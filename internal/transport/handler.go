package transport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ct-scan-inspector/internal/config"
	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/pipeline"
	"ct-scan-inspector/internal/service"
	"ct-scan-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader lets callers choose the run id of an analysis
const RequestIDHeader = "X-Request-ID"

// MetricsProvider exposes counters for GET /metrics
type MetricsProvider interface {
	GetMetrics() map[string]interface{}
}

type handler struct {
	svc     service.ScanAnalysisService
	metrics MetricsProvider
	cfg     *config.Config
	log     *logrus.Logger
}

// NewHandler builds the gin engine. metrics may be nil.
func NewHandler(svc service.ScanAnalysisService, metrics MetricsProvider, cfg *config.Config, log *logrus.Logger) http.Handler {
	h := &handler{svc: svc, metrics: metrics, cfg: cfg, log: log}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(log),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", h.getMetrics)
	r.POST("/analyze", h.analyze)
	r.POST("/analyze/stream", h.analyzeStream)

	return r
}

func (h *handler) analyze(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	ctx, cancel, runID := h.analysisContext(c)
	defer cancel()

	resp, err := h.svc.Analyze(ctx, req, nil)
	if err != nil {
		h.respondError(c, runID, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"run_id":              runID,
		"is_blurry":           resp.IsBlurry,
		"processing_time_sec": resp.ProcessingTimeSec,
	}).Info("CT scan analysis request completed")
	c.JSON(http.StatusOK, resp)
}

type streamEvent struct {
	name string
	data interface{}
}

// analyzeStream sends one "status" event per progress status followed by a
// terminal "result" or "error" event.
func (h *handler) analyzeStream(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}
	ctx, cancel, runID := h.analysisContext(c)
	defer cancel()

	// at most four statuses and one terminal event are ever sent
	events := make(chan streamEvent, 8)
	go func() {
		defer close(events)
		resp, err := h.svc.Analyze(ctx, req, func(status string) {
			events <- streamEvent{name: "status", data: gin.H{"status": status, "run_id": runID}}
		})
		if err != nil {
			_, body := h.errorBody(runID, err)
			events <- streamEvent{name: "error", data: body}
			return
		}
		events <- streamEvent{name: "result", data: resp}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	for ev := range events {
		c.SSEvent(ev.name, ev.data)
		c.Writer.Flush()
	}
}

func (h *handler) bindRequest(c *gin.Context) (models.AnalysisRequest, bool) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.log.WithField("limit", maxErr.Limit).Warn("Request body too large")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error:   http.StatusText(http.StatusRequestEntityTooLarge),
				Message: "request body too large",
				Type:    string(apperrors.ErrorTypeValidation),
			})
			return req, false
		}
		h.respondError(c, "", apperrors.NewValidationError("invalid request format", err))
		return req, false
	}
	return req, true
}

// analysisContext bounds the run by the analysis timeout and attaches the
// run id taken from RequestIDHeader or a fresh one.
func (h *handler) analysisContext(c *gin.Context) (context.Context, context.CancelFunc, string) {
	runID := c.GetHeader(RequestIDHeader)
	if runID == "" {
		runID = uuid.New().String()
	}
	c.Header(RequestIDHeader, runID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.AnalysisTimeout)
	return pipeline.WithRunID(ctx, runID), cancel, runID
}

func (h *handler) getMetrics(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetMetrics())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) errorBody(runID string, err error) (int, models.ErrorResponse) {
	appErr := apperrors.Normalize(err)
	return appErr.StatusCode, models.ErrorResponse{
		Error:   http.StatusText(appErr.StatusCode),
		Message: apperrors.DisplayMessage(appErr),
		Type:    string(appErr.Type),
		RunID:   runID,
	}
}

func (h *handler) respondError(c *gin.Context, runID string, err error) {
	code, body := h.errorBody(runID, err)

	h.log.WithError(err).WithFields(logrus.Fields{
		"run_id":      runID,
		"status_code": code,
		"type":        body.Type,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, body)
}
