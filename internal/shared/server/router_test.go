package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vipulchinmay/projectaushadX/internal/profiles"
	"github.com/vipulchinmay/projectaushadX/internal/services/health"
	"github.com/vipulchinmay/projectaushadX/internal/shared/config"
)

func testConfig() config.Config {
	return config.Config{
		CORSAllowOrigin:       []string{"*"},
		MaxConcurrentRequests: 2,
		MaxUploadBytes:        1 << 10,
	}
}

func TestRouterAmbientRoutes(t *testing.T) {
	r := NewRouter(RouterDeps{Config: testConfig(), Health: health.NewService(nil, map[string]string{"llm": "ollama"})})

	tests := []struct {
		path string
		want string
	}{
		{path: "/", want: `"message":"Medical Chatbot API is Running!"`},
		{path: "/health", want: `"ok":true`},
		{path: "/metrics", want: "aushad_"},
	}
	for _, tt := range tests {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tt.path, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), tt.want) {
			t.Fatalf("%s: body %q missing %q", tt.path, resp.Body.String(), tt.want)
		}
	}
}

func TestRouterBodyLimit(t *testing.T) {
	r := NewRouter(RouterDeps{
		Config:          testConfig(),
		ProfilesHandler: profiles.NewHandler(profiles.NewService(profiles.NewMemoryRepo())),
	})

	big := `{"name":"` + strings.Repeat("a", 4<<10) + `","age":1,"gender":"F","blood_group":"O","date_of_birth":"d"}`
	req := httptest.NewRequest(http.MethodPost, "/profile", bytes.NewBufferString(big))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: expected 400, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/profile", bytes.NewBufferString(`{"name":"a","age":1,"gender":"F","blood_group":"O","date_of_birth":"d"}`))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var out map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if resp.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("small body: unexpected %d %v", resp.Code, out)
	}
}

func TestAddr(t *testing.T) {
	for in, want := range map[string]string{"": ":5000", "8080": ":8080", ":9000": ":9000"} {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
