package scan

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the scan service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the scan route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scan", h.scan)
}

type scanRequest struct {
	Image    string `json:"image"`
	Language string `json:"language"`
}

func (h *Handler) scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Image) == "" {
		metrics.IncRequest("scan", "client_error")
		respond.Error(c, http.StatusBadRequest, "missing_image", "No image received")
		return
	}
	telemetry.Info("scan.received", map[string]any{
		"request_id":   c.GetString("requestId"),
		"image_length": len(req.Image),
		"language":     req.Language,
	})

	res, err := h.Svc.Scan(c.Request.Context(), req.Image, req.Language)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.IncRequest("scan", "ok")
	respond.OK(c, res)
}

func (h *Handler) fail(c *gin.Context, err error) {
	var decodeErr *decode.Error
	var genErr *llm.GenerationError
	switch {
	case errors.As(err, &decodeErr):
		metrics.IncRequest("scan", "client_error")
		respond.Error(c, http.StatusBadRequest, string(decodeErr.Kind), "Invalid image data")
	case errors.Is(err, ErrNoText):
		metrics.IncRequest("scan", "client_error")
		respond.Error(c, http.StatusBadRequest, "no_text", "No text found in the image")
	case errors.As(err, &genErr):
		metrics.IncRequest("scan", "server_error")
		telemetry.Error("scan.generation_failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		respond.Error(c, http.StatusInternalServerError, "generation_failed", "AI model failed to extract valid details")
	default:
		metrics.IncRequest("scan", "server_error")
		telemetry.Error("scan.failed", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to process the image")
	}
}
