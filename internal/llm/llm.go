package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes a single generation call.
type Options struct {
	// JSON asks the backend for a JSON object where it supports a structured mode.
	JSON bool
}

// Client abstracts the generation backends (local inference or remote chat completion).
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
}

// ErrEmptyResponse is wrapped when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty completion")

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm not configured")

// GenerationError reports a failed or empty generation. Handlers map it to a 500.
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Complete sends prompt as a single user turn and returns the trimmed answer.
func Complete(ctx context.Context, c Client, prompt string, opts Options) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

// Finish trims a raw completion and converts empty output into a GenerationError.
// Backends call it on every successful HTTP exchange.
func Finish(backend, raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &GenerationError{Backend: backend, Err: ErrEmptyResponse}
	}
	return text, nil
}

// PlaceholderClient fails every call; used when no backend is configured.
type PlaceholderClient struct{}

// Chat returns a GenerationError wrapping ErrNotConfigured.
func (PlaceholderClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return "", &GenerationError{Backend: "none", Err: ErrNotConfigured}
}
