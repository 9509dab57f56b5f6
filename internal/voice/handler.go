package voice

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vipulchinmay/projectaushadX/internal/conversation"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/respond"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

const defaultMaxAudioBytes = 25 << 20

var errNoAudio = errors.New("no audio file provided")

// Handler wires HTTP and websocket handlers to the voice service.
type Handler struct {
	Svc           *Service
	MaxAudioBytes int64
	upgrader      websocket.Upgrader
}

// NewHandler constructs a Handler. allowedOrigins limits browser websocket
// clients; "*" allows any origin and requests without Origin are always allowed.
func NewHandler(svc *Service, maxAudioBytes int64, allowedOrigins []string) *Handler {
	if maxAudioBytes <= 0 {
		maxAudioBytes = defaultMaxAudioBytes
	}
	return &Handler{
		Svc:           svc,
		MaxAudioBytes: maxAudioBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// RegisterRoutes attaches the audio upload route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/process-audio", h.processAudio)
}

// RegisterSocket attaches the websocket chat route. It belongs outside request
// admission since a connection lives for the whole conversation.
func (h *Handler) RegisterSocket(rg *gin.RouterGroup) {
	rg.GET("/chat/ws", h.chatSocket)
}

func (h *Handler) processAudio(c *gin.Context) {
	sessionID := strings.TrimSpace(c.PostForm("session_id"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(c.GetHeader("X-Session-Id"))
	}

	data, format, err := h.readUpload(c)
	if err != nil {
		id := conversation.IssueID(sessionID)
		c.Set("sessionId", id)
		metrics.IncRequest("process_audio", "client_error")
		telemetry.Warn("voice.upload_invalid", map[string]any{"request_id": c.GetString("requestId"), "err": err})
		respond.OK(c, Reply{Response: UserMessage(err), SessionID: id})
		return
	}

	reply, err := h.Svc.ProcessAudio(c.Request.Context(), sessionID, data, format)
	c.Set("sessionId", reply.SessionID)
	if err != nil {
		metrics.IncRequest("process_audio", "failed")
		telemetry.Warn("voice.turn_failed", map[string]any{
			"request_id": c.GetString("requestId"),
			"session_id": reply.SessionID,
			"err":        err,
		})
	} else {
		metrics.IncRequest("process_audio", "ok")
	}
	respond.OK(c, reply)
}

func (h *Handler) readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		fh, err = c.FormFile("audio")
	}
	if err != nil {
		return nil, "", uploadError(err)
	}
	format := strings.TrimSpace(c.PostForm("format"))
	if format == "" {
		format = filepath.Ext(fh.Filename)
	}
	if format == "" {
		format = fh.Header.Get("Content-Type")
	}
	data, err := readLimited(fh, h.MaxAudioBytes)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Errorf("audio file exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return errNoAudio
	default:
		return fmt.Errorf("read upload: %w", err)
	}
}

func readLimited(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, fmt.Errorf("audio file exceeds %d bytes", limit)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("audio file exceeds %d bytes", limit)
	}
	return data, nil
}
