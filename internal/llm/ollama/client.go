// Package ollama implements llm.Client against a locally hosted Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
)

const defaultBaseURL = "http://localhost:11434"

// Client calls /api/chat synchronously (stream disabled) once per generation.
type Client struct {
	endpoint    string
	model       string
	temperature float64
	numPredict  int
	httpClient  *http.Client
}

// NewClient builds a client for model served at baseURL.
func NewClient(baseURL, model string, temperature float64, maxTokens int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model is required for the local LLM")
	}
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		endpoint:    base + "/api/chat",
		model:       model,
		temperature: temperature,
		numPredict:  maxTokens,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []llm.Message  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

// Chat sends the conversation and returns the trimmed assistant message.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	start := time.Now()
	content, err := c.chatOnce(ctx, messages, opts)
	metrics.ObserveStage("llm", time.Since(start))
	if err != nil {
		return "", &llm.GenerationError{Backend: "ollama", Err: err}
	}
	return llm.Finish("ollama", content)
}

func (c *Client) chatOnce(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": c.temperature},
	}
	if c.numPredict > 0 {
		reqBody.Options["num_predict"] = c.numPredict
	}
	if opts.JSON {
		reqBody.Format = "json"
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("ollama http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("ollama response parse: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama http status %d: %s", resp.StatusCode, parsed.Error)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama http status %d", resp.StatusCode)
	}
	return parsed.Message.Content, nil
}

var _ llm.Client = (*Client)(nil)
