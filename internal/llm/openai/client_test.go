package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vipulchinmay/projectaushadX/internal/llm"
)

func TestNewClientRequiresModelAndKey(t *testing.T) {
	if _, err := NewClient(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without model")
	}
	if _, err := NewClient(Config{Model: "m"}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestChatSendsConfiguredRequest(t *testing.T) {
	var got map[string]any
	var headers http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Take with water.  "}}]}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{
		BaseURL:     server.URL + "/api/v1/",
		APIKey:      "test-key",
		Model:       "meta-llama/llama-3.1-8b-instruct:free",
		Temperature: 0.7,
		MaxTokens:   150,
		Headers:     map[string]string{"HTTP-Referer": "https://aushad.example"},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: llm.MedicalChatPersona},
		{Role: llm.RoleUser, Content: "What is paracetamol?"},
	}, llm.Options{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "Take with water." {
		t.Fatalf("unexpected output %q", out)
	}
	if headers.Get("Authorization") != "Bearer test-key" {
		t.Fatalf("missing bearer auth")
	}
	if headers.Get("HTTP-Referer") != "https://aushad.example" {
		t.Fatalf("missing referer header")
	}
	if got["temperature"] != 0.7 || got["max_tokens"] != float64(150) {
		t.Fatalf("unexpected sampling params: %v", got)
	}
	if _, ok := got["response_format"]; ok {
		t.Fatalf("response_format must be omitted for plain text")
	}
	if msgs, ok := got["messages"].([]any); !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %v", got["messages"])
	}
}

func TestChatJSONModeAndFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"   "}}]}`, want: llm.ErrEmptyResponse},
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key","type":"auth"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "not json", status: http.StatusBadGateway, body: `<html>`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var payload map[string]any
				_ = json.NewDecoder(r.Body).Decode(&payload)
				if rf, ok := payload["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
					t.Errorf("expected json_object response format, got %v", payload["response_format"])
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{BaseURL: server.URL, APIKey: "k", Model: "m"})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = llm.Complete(context.Background(), client, "prompt", llm.Options{JSON: true})
			var genErr *llm.GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
