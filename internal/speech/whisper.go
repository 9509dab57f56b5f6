package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/decode"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
)

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions endpoint
// (OpenAI, whisper.cpp server, faster-whisper).
type WhisperClient struct {
	Endpoint   string
	APIKey     string
	Model      string
	Language   string
	HTTPClient *http.Client
}

// NewWhisperClient builds a client with the given request timeout.
func NewWhisperClient(endpoint, apiKey, model, language string, timeout time.Duration) *WhisperClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &WhisperClient{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Model:      model,
		Language:   language,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads pcm as a WAV file and returns the recognized text.
func (c *WhisperClient) Transcribe(ctx context.Context, pcm decode.PCM) (string, error) {
	wav, err := pcm.WAV()
	if err != nil {
		return "", fmt.Errorf("wrap wav: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if c.Model != "" {
		_ = writer.WriteField("model", c.Model)
	}
	if c.Language != "" {
		_ = writer.WriteField("language", c.Language)
	}
	_ = writer.WriteField("response_format", "json")
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return "", &ServiceError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	metrics.ObserveStage("stt", time.Since(start))
	if err != nil {
		return "", &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &ServiceError{Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(respBody)))}
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ServiceError{Status: resp.StatusCode, Err: fmt.Errorf("decoding transcription: %w", err)}
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}
