package analytics

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the analytics service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analytics routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze-medical-reports", h.analyze)
	rg.POST("/save-analytics", h.save)
	rg.GET("/get-analytics-history/:user_id", h.history)
}

func (h *Handler) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncRequest("analyze", "client_error")
		respond.Error(c, http.StatusBadRequest, "no_data", "No data provided")
		return
	}
	telemetry.Info("analytics.received", map[string]any{
		"request_id": c.GetString("requestId"),
		"reports":    len(req.MedicalReports),
	})

	res, err := h.Svc.Analyze(c.Request.Context(), req)
	if err != nil {
		var genErr *llm.GenerationError
		switch {
		case errors.Is(err, ErrNoData):
			metrics.IncRequest("analyze", "client_error")
			respond.Error(c, http.StatusBadRequest, "no_data", "No data provided")
		case errors.As(err, &genErr):
			metrics.IncRequest("analyze", "server_error")
			telemetry.Error("analytics.generation_failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
			respond.Error(c, http.StatusInternalServerError, "generation_failed", "Failed to generate health analytics")
		default:
			metrics.IncRequest("analyze", "server_error")
			telemetry.Error("analytics.failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to analyze medical reports")
		}
		return
	}

	c.Set("userId", res.Analytics["user_id"])
	c.Set("reportsProcessed", res.Analytics["reports_processed"])
	outcome := "ok"
	if res.Degraded {
		outcome = "degraded"
	}
	metrics.IncRequest("analyze", outcome)
	respond.OK(c, gin.H{
		"success":                true,
		"analytics":              res.Analytics,
		"medical_data_extracted": res.Extracted,
		"failed_reports":         res.Failed,
	})
}

func (h *Handler) save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncRequest("save_analytics", "client_error")
		respond.Error(c, http.StatusBadRequest, "missing_fields", "Missing user_id or analytics")
		return
	}
	filename, err := h.Svc.Save(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMissingFields) {
			metrics.IncRequest("save_analytics", "client_error")
			respond.Error(c, http.StatusBadRequest, "missing_fields", "Missing user_id or analytics")
			return
		}
		metrics.IncRequest("save_analytics", "server_error")
		telemetry.Error("analytics.save_failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		respond.Error(c, http.StatusInternalServerError, "storage_error", "Failed to save analytics")
		return
	}
	c.Set("userId", req.UserID)
	metrics.IncRequest("save_analytics", "ok")
	respond.OK(c, gin.H{
		"success":  true,
		"message":  "Analytics saved successfully",
		"filename": filename,
	})
}

func (h *Handler) history(c *gin.Context) {
	userID := c.Param("user_id")
	entries, err := h.Svc.History(c.Request.Context(), userID)
	if err != nil {
		metrics.IncRequest("analytics_history", "server_error")
		telemetry.Error("analytics.history_failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		respond.Error(c, http.StatusInternalServerError, "storage_error", "Failed to load analytics history")
		return
	}
	c.Set("userId", userID)
	metrics.IncRequest("analytics_history", "ok")
	respond.OK(c, gin.H{"analytics_history": entries})
}
