package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service reports process readiness and which backends are configured.
type Service struct {
	DB         Pinger
	Components map[string]string
	Timeout    time.Duration
}

// NewService constructs a health service. db may be nil when profiles are kept in memory.
func NewService(db Pinger, components map[string]string) *Service {
	return &Service{DB: db, Components: components, Timeout: 2 * time.Second}
}

// Status returns the health payload and whether every dependency answered.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true}
	for k, v := range s.Components {
		out[k] = v
	}
	if s.DB == nil {
		out["database"] = "memory"
		return out, true
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out["ok"] = false
		out["database"] = "down"
		return out, false
	}
	out["database"] = "up"
	return out, true
}
