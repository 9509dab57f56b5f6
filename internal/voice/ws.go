package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vipulchinmay/projectaushadX/internal/conversation"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

const (
	wsIdleTimeout  = 5 * time.Minute
	wsWriteTimeout = 10 * time.Second
)

// Frame is a websocket message in either direction.
type Frame struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Frame types.
const (
	FrameSession    = "session"
	FrameText       = "text"
	FrameTranscript = "transcript"
	FrameResponse   = "response"
	FrameError      = "error"
)

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// chatSocket keeps one conversation for the lifetime of the connection. Text
// frames carry questions; binary frames carry audio in ?format= (m4a by default).
func (h *Handler) chatSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conv := h.Svc.Sessions.Acquire("")
	defer h.Svc.Sessions.Delete(conv.ID)
	c.Set("sessionId", conv.ID)
	format := c.Query("format")
	ctx := c.Request.Context()

	telemetry.Info("voice.ws_connected", map[string]any{"session_id": conv.ID})
	if err := writeFrame(conn, Frame{Type: FrameSession, SessionID: conv.ID}); err != nil {
		return
	}

	conn.SetReadLimit(h.MaxAudioBytes)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var out []Frame
		switch msgType {
		case websocket.TextMessage:
			out = h.textTurn(ctx, conv, data)
		case websocket.BinaryMessage:
			out = h.audioTurn(ctx, conv, data, format)
		}
		for _, f := range out {
			f.SessionID = conv.ID
			if err := writeFrame(conn, f); err != nil {
				return
			}
		}
	}
	telemetry.Info("voice.ws_disconnected", map[string]any{"session_id": conv.ID})
}

func (h *Handler) textTurn(ctx context.Context, conv *conversation.Conversation, data []byte) []Frame {
	var in Frame
	if err := json.Unmarshal(data, &in); err != nil || in.Type != FrameText || strings.TrimSpace(in.Text) == "" {
		metrics.IncRequest("chat_ws", "client_error")
		return []Frame{{Type: FrameError, Error: `expected {"type":"text","text":"..."}`}}
	}
	answer, err := conv.Turn(ctx, h.Svc.LLM, strings.TrimSpace(in.Text))
	if err != nil {
		metrics.IncRequest("chat_ws", "failed")
		telemetry.Warn("voice.ws_turn_failed", map[string]any{"session_id": conv.ID, "err": err})
		return []Frame{{Type: FrameError, Error: UserMessage(err)}}
	}
	metrics.IncRequest("chat_ws", "ok")
	return []Frame{{Type: FrameResponse, Text: answer}}
}

func (h *Handler) audioTurn(ctx context.Context, conv *conversation.Conversation, data []byte, format string) []Frame {
	text, err := h.Svc.Transcribe(ctx, data, format)
	if err != nil {
		metrics.IncRequest("chat_ws", "failed")
		return []Frame{{Type: FrameError, Error: UserMessage(err)}}
	}
	frames := []Frame{{Type: FrameTranscript, Text: text}}
	answer, err := conv.Turn(ctx, h.Svc.LLM, text)
	if err != nil {
		metrics.IncRequest("chat_ws", "failed")
		return append(frames, Frame{Type: FrameError, Error: UserMessage(err)})
	}
	metrics.IncRequest("chat_ws", "ok")
	return append(frames, Frame{Type: FrameResponse, Text: answer})
}

func writeFrame(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(f)
}
