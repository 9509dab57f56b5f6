package health

import (
	"context"
	"errors"
	"testing"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func TestStatus(t *testing.T) {
	status, ok := NewService(nil, map[string]string{"llm": "ollama"}).Status(context.Background())
	if !ok || status["ok"] != true || status["database"] != "memory" || status["llm"] != "ollama" {
		t.Fatalf("unexpected memory status %v", status)
	}

	status, ok = NewService(pinger{}, nil).Status(context.Background())
	if !ok || status["database"] != "up" {
		t.Fatalf("unexpected db status %v", status)
	}

	status, ok = NewService(pinger{err: errors.New("refused")}, nil).Status(context.Background())
	if ok || status["ok"] != false || status["database"] != "down" {
		t.Fatalf("unexpected failing status %v", status)
	}
}
