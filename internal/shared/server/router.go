package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vipulchinmay/projectaushadX/internal/analytics"
	"github.com/vipulchinmay/projectaushadX/internal/profiles"
	"github.com/vipulchinmay/projectaushadX/internal/scan"
	"github.com/vipulchinmay/projectaushadX/internal/services/health"
	"github.com/vipulchinmay/projectaushadX/internal/shared/config"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/middleware"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
	"github.com/vipulchinmay/projectaushadX/internal/voice"
)

// RouterDeps carries the handlers registered on the engine. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	Health           *health.Service
	ScanHandler      *scan.Handler
	AnalyticsHandler *analytics.Handler
	VoiceHandler     *voice.Handler
	ProfilesHandler  *profiles.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "Medical Chatbot API is Running!"})
	})
	r.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.OK(c, gin.H{"ok": true})
			return
		}
		status, ok := deps.Health.Status(c.Request.Context())
		if !ok {
			respond.Error(c, http.StatusServiceUnavailable, "unhealthy", "Database unavailable")
			return
		}
		respond.OK(c, status)
	})
	r.GET("/metrics", metrics.Handler())
	if deps.VoiceHandler != nil {
		deps.VoiceHandler.RegisterSocket(&r.RouterGroup)
	}

	api := r.Group("/",
		middleware.BodyLimit(deps.Config.MaxUploadBytes),
		middleware.Admission(deps.Config.MaxConcurrentRequests),
	)
	if deps.ScanHandler != nil {
		deps.ScanHandler.RegisterRoutes(api)
	}
	if deps.AnalyticsHandler != nil {
		deps.AnalyticsHandler.RegisterRoutes(api)
	}
	if deps.VoiceHandler != nil {
		deps.VoiceHandler.RegisterRoutes(api)
	}
	if deps.ProfilesHandler != nil {
		deps.ProfilesHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
