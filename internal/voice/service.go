// Package voice answers spoken medical questions within a per-session conversation.
package voice

import (
	"context"
	"errors"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/conversation"
	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
	"github.com/vipulchinmay/projectaushadX/internal/speech"
)

// AudioDecoder converts an uploaded container to PCM.
type AudioDecoder interface {
	Decode(ctx context.Context, data []byte, format string) (decode.PCM, error)
}

// Service runs decode, transcription and a conversation turn.
type Service struct {
	Audio    AudioDecoder
	Speech   speech.Recognizer
	LLM      llm.Client
	Sessions *conversation.Store
}

// Reply is the body of every /process-audio response, including failures.
type Reply struct {
	Response  string `json:"response"`
	Text      string `json:"text"`
	SessionID string `json:"session_id"`
}

// Transcribe decodes audio and returns the recognized utterance.
func (s *Service) Transcribe(ctx context.Context, data []byte, format string) (string, error) {
	start := time.Now()
	pcm, err := s.Audio.Decode(ctx, data, format)
	metrics.ObserveStage("audio_decode", time.Since(start))
	if err != nil {
		return "", err
	}
	telemetry.Info("voice.audio_decoded", map[string]any{
		"format":           format,
		"duration_seconds": pcm.Duration(),
	})
	return s.Speech.Transcribe(ctx, pcm)
}

// ProcessAudio transcribes data and runs one turn in the session's conversation.
// Failures are reported in Reply.Response; the returned error is for logging only.
func (s *Service) ProcessAudio(ctx context.Context, sessionID string, data []byte, format string) (Reply, error) {
	conv := s.Sessions.Acquire(sessionID)
	reply := Reply{SessionID: conv.ID}

	text, err := s.Transcribe(ctx, data, format)
	if err != nil {
		reply.Response = UserMessage(err)
		return reply, err
	}
	reply.Text = text
	telemetry.Info("voice.transcribed", map[string]any{"session_id": conv.ID, "text_length": len(text)})

	answer, err := conv.Turn(ctx, s.LLM, text)
	if err != nil {
		reply.Response = UserMessage(err)
		return reply, err
	}
	reply.Response = answer
	return reply, nil
}

// UserMessage renders err as the text shown to the user in place of an answer.
func UserMessage(err error) string {
	var svcErr *speech.ServiceError
	var genErr *llm.GenerationError
	switch {
	case errors.Is(err, speech.ErrUnrecognized):
		return "Could not understand audio"
	case errors.As(err, &svcErr):
		return "Speech recognition service error: " + svcErr.Error()
	case errors.As(err, &genErr):
		return "Sorry, I encountered an error."
	default:
		return "An error occurred: " + err.Error()
	}
}
