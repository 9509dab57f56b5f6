package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vipulchinmay/projectaushadX/internal/conversation"
	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/server/middleware"
	"github.com/vipulchinmay/projectaushadX/internal/speech"
)

type stubSpeech struct {
	text string
	err  error
}

func (s stubSpeech) Transcribe(ctx context.Context, pcm decode.PCM) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

// countingLLM answers with the number of turns it was given.
type countingLLM struct {
	mu    sync.Mutex
	calls [][]llm.Message
	err   error
}

func (c *countingLLM) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, messages)
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("answer after %d turns", len(messages)), nil
}

func wavBytes(t *testing.T) []byte {
	t.Helper()
	wav, err := decode.PCM{Data: make([]byte, 3200), SampleRate: decode.TargetSampleRate}.WAV()
	if err != nil {
		t.Fatalf("wav: %v", err)
	}
	return wav
}

func newTestHandler(rec speech.Recognizer, gen llm.Client) (*Handler, *conversation.Store) {
	sessions := conversation.NewStore(llm.MedicalChatPersona, time.Hour)
	svc := &Service{
		Audio:    decode.NewAudioDecoder(""),
		Speech:   rec,
		LLM:      gen,
		Sessions: sessions,
	}
	return NewHandler(svc, 1<<20, nil), sessions
}

func setupRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(&router.RouterGroup)
	h.RegisterSocket(&router.RouterGroup)
	return router
}

func postAudio(t *testing.T, router *gin.Engine, field string, audio []byte, fields map[string]string, header string) Reply {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if audio != nil {
		part, err := w.CreateFormFile(field, "question.wav")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = part.Write(audio)
	}
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/process-audio", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if header != "" {
		req.Header.Set("X-Session-Id", header)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("process-audio must always answer 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out Reply
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return out
}

func TestProcessAudioContinuesSession(t *testing.T) {
	gen := &countingLLM{}
	h, _ := newTestHandler(stubSpeech{text: "is ibuprofen safe"}, gen)
	router := setupRouter(h)

	first := postAudio(t, router, "file", wavBytes(t), nil, "")
	if first.SessionID == "" || first.Text != "is ibuprofen safe" || first.Response != "answer after 2 turns" {
		t.Fatalf("unexpected first reply %+v", first)
	}

	second := postAudio(t, router, "audio", wavBytes(t), map[string]string{"session_id": first.SessionID}, "")
	if second.SessionID != first.SessionID || second.Response != "answer after 4 turns" {
		t.Fatalf("second turn should extend the session: %+v", second)
	}

	third := postAudio(t, router, "file", wavBytes(t), nil, first.SessionID)
	if third.SessionID != first.SessionID || third.Response != "answer after 6 turns" {
		t.Fatalf("header session id should be honoured: %+v", third)
	}

	history := gen.calls[2]
	if history[0].Role != llm.RoleSystem || history[1].Role != llm.RoleUser || history[2].Role != llm.RoleAssistant {
		t.Fatalf("unexpected history roles %+v", history)
	}
}

func TestProcessAudioSessionsAreIsolated(t *testing.T) {
	gen := &countingLLM{}
	router := setupRouter(func() *Handler { h, _ := newTestHandler(stubSpeech{text: "hi"}, gen); return h }())

	a := postAudio(t, router, "file", wavBytes(t), map[string]string{"session_id": "alice"}, "")
	b := postAudio(t, router, "file", wavBytes(t), map[string]string{"session_id": "bob"}, "")
	if a.Response != "answer after 2 turns" || b.Response != "answer after 2 turns" {
		t.Fatalf("sessions leaked: %+v %+v", a, b)
	}
	if a.SessionID != "alice" || b.SessionID != "bob" {
		t.Fatalf("session ids not echoed: %+v %+v", a, b)
	}
}

func TestProcessAudioErrorsAreEmbedded(t *testing.T) {
	tests := []struct {
		name   string
		rec    stubSpeech
		gen    *countingLLM
		audio  []byte
		prefix string
	}{
		{name: "no speech", rec: stubSpeech{err: speech.ErrUnrecognized}, gen: &countingLLM{}, prefix: "Could not understand audio"},
		{name: "stt down", rec: stubSpeech{err: &speech.ServiceError{Status: 502, Err: errors.New("bad gateway")}}, gen: &countingLLM{}, prefix: "Speech recognition service error: status 502: bad gateway"},
		{name: "generation", rec: stubSpeech{text: "hello"}, gen: &countingLLM{err: &llm.GenerationError{Backend: "stub", Err: errors.New("down")}}, prefix: "Sorry, I encountered an error."},
		{name: "missing file", rec: stubSpeech{text: "hello"}, gen: &countingLLM{}, audio: []byte{}, prefix: "An error occurred: no audio file provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(tt.rec, tt.gen)
			audio := tt.audio
			if audio == nil {
				audio = wavBytes(t)
			} else if len(audio) == 0 {
				audio = nil
			}
			reply := postAudio(t, setupRouter(h), "file", audio, nil, "")
			if !strings.HasPrefix(reply.Response, tt.prefix) {
				t.Fatalf("expected response %q, got %q", tt.prefix, reply.Response)
			}
			if reply.SessionID == "" {
				t.Fatalf("session id must always be returned")
			}
		})
	}
}

func TestProcessAudioRejectedUploadStoresNoSession(t *testing.T) {
	tests := []struct {
		name   string
		limit  int64
		audio  []byte
		prefix string
	}{
		{name: "body over limit", limit: 512, audio: make([]byte, 4096), prefix: "An error occurred: audio file exceeds 512 bytes"},
		{name: "no file", audio: nil, prefix: "An error occurred: no audio file provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sessions := newTestHandler(stubSpeech{text: "hello"}, &countingLLM{})
			gin.SetMode(gin.TestMode)
			router := gin.New()
			if tt.limit > 0 {
				router.Use(middleware.BodyLimit(tt.limit))
			}
			h.RegisterRoutes(&router.RouterGroup)

			reply := postAudio(t, router, "file", tt.audio, nil, "visit-7")
			if reply.Response != tt.prefix {
				t.Fatalf("expected response %q, got %q", tt.prefix, reply.Response)
			}
			if reply.SessionID != "visit-7" {
				t.Fatalf("session id should be echoed, got %q", reply.SessionID)
			}
			if sessions.Len() != 0 {
				t.Fatalf("rejected upload must not create a conversation, have %d", sessions.Len())
			}
		})
	}
}

func TestGenerationFailureKeepsUserTurn(t *testing.T) {
	gen := &countingLLM{err: &llm.GenerationError{Backend: "stub", Err: errors.New("down")}}
	h, sessions := newTestHandler(stubSpeech{text: "dose of amoxicillin"}, gen)
	reply := postAudio(t, setupRouter(h), "file", wavBytes(t), map[string]string{"session_id": "s1"}, "")
	if reply.Text != "dose of amoxicillin" {
		t.Fatalf("transcript should still be returned: %+v", reply)
	}
	if sessions.Len() != 1 {
		t.Fatalf("session not created")
	}
	msgs := sessions.Acquire("s1").Messages()
	if len(msgs) != 2 || msgs[1].Role != llm.RoleUser {
		t.Fatalf("expected system + user turns, got %+v", msgs)
	}
}

func TestChatSocket(t *testing.T) {
	gen := &countingLLM{}
	h, sessions := newTestHandler(stubSpeech{text: "what is metformin"}, gen)
	srv := httptest.NewServer(setupRouter(h))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/chat/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	read := func() Frame {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		return f
	}

	hello := read()
	if hello.Type != FrameSession || hello.SessionID == "" {
		t.Fatalf("expected session frame, got %+v", hello)
	}

	if err := conn.WriteJSON(Frame{Type: FrameText, Text: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := read(); f.Type != FrameResponse || f.Text != "answer after 2 turns" {
		t.Fatalf("unexpected response frame %+v", f)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := read(); f.Type != FrameError {
		t.Fatalf("expected error frame, got %+v", f)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, wavBytes(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if f := read(); f.Type != FrameTranscript || f.Text != "what is metformin" {
		t.Fatalf("expected transcript frame, got %+v", f)
	}
	if f := read(); f.Type != FrameResponse || f.Text != "answer after 4 turns" {
		t.Fatalf("audio turn should extend the conversation, got %+v", f)
	}

	_ = conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for sessions.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sessions.Len() != 0 {
		t.Fatalf("conversation should be dropped when the socket closes")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})
	req := httptest.NewRequest(http.MethodGet, "http://api.example/chat/ws", nil)
	if !check(req) {
		t.Fatalf("requests without Origin are allowed")
	}
	req.Header.Set("Origin", "https://app.example")
	if !check(req) {
		t.Fatalf("configured origin should be allowed")
	}
	req.Header.Set("Origin", "https://evil.example")
	if check(req) {
		t.Fatalf("foreign origin should be rejected")
	}
	if !originChecker([]string{"*"})(req) {
		t.Fatalf("wildcard should allow any origin")
	}
}
