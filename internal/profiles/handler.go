package profiles

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/profile", h.save)
	rg.GET("/profile/:id", h.get)
	rg.GET("/profiles", h.list)
	rg.DELETE("/profile/:id", h.delete)
}

func (h *Handler) save(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		metrics.IncRequest("profile_save", "client_error")
		respond.Error(c, http.StatusBadRequest, "missing_fields", "Missing required fields!")
		return
	}
	p, err := h.Svc.Save(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			metrics.IncRequest("profile_save", "client_error")
			respond.Error(c, http.StatusBadRequest, "missing_fields", "Missing required fields!")
		case errors.Is(err, ErrNotFound):
			metrics.IncRequest("profile_save", "client_error")
			respond.Error(c, http.StatusNotFound, "not_found", "User not found")
		default:
			h.internal(c, "profile_save", err)
		}
		return
	}
	c.Set("userId", p.ID)
	metrics.IncRequest("profile_save", "ok")
	respond.OK(c, gin.H{"success": true, "message": "Profile saved successfully!", "user": p})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncRequest("profile_get", "client_error")
			respond.Error(c, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.internal(c, "profile_get", err)
		return
	}
	metrics.IncRequest("profile_get", "ok")
	respond.OK(c, gin.H{"success": true, "user": p})
}

func (h *Handler) list(c *gin.Context) {
	all, err := h.Svc.List(c.Request.Context())
	if err != nil {
		h.internal(c, "profile_list", err)
		return
	}
	metrics.IncRequest("profile_list", "ok")
	respond.OK(c, gin.H{"success": true, "users": all})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncRequest("profile_delete", "client_error")
			respond.Error(c, http.StatusNotFound, "not_found", "User not found")
			return
		}
		h.internal(c, "profile_delete", err)
		return
	}
	metrics.IncRequest("profile_delete", "ok")
	respond.OK(c, gin.H{"success": true, "message": "Profile deleted successfully!"})
}

func (h *Handler) internal(c *gin.Context, route string, err error) {
	metrics.IncRequest(route, "server_error")
	telemetry.Error("profiles.failed", map[string]any{"request_id": c.GetString("requestId"), "route": route, "err": err})
	respond.Error(c, http.StatusInternalServerError, "internal_error", "Internal Server Error")
}
