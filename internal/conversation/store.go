// Package conversation keeps one chat history per session.
package conversation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vipulchinmay/projectaushadX/internal/llm"
	"github.com/vipulchinmay/projectaushadX/internal/shared/metrics"
	"github.com/vipulchinmay/projectaushadX/internal/shared/telemetry"
)

const maxSessionIDLen = 128

// Conversation is the turn history of one session. The system turn is fixed at
// creation; user and assistant turns only ever append.
type Conversation struct {
	ID string

	mu         sync.Mutex
	turns      []llm.Message
	lastActive atomic.Int64
}

func newConversation(id, persona string, now time.Time) *Conversation {
	c := &Conversation{
		ID:    id,
		turns: []llm.Message{{Role: llm.RoleSystem, Content: persona}},
	}
	c.lastActive.Store(now.UnixNano())
	return c
}

// Turn appends the user's utterance, generates over the whole history and
// appends the reply. Turns of one conversation never interleave. When
// generation fails the user turn stays and no assistant turn is added.
func (c *Conversation) Turn(ctx context.Context, gen llm.Client, userText string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.lastActive.Store(time.Now().UnixNano())

	c.turns = append(c.turns, llm.Message{Role: llm.RoleUser, Content: userText})
	history := make([]llm.Message, len(c.turns))
	copy(history, c.turns)

	reply, err := gen.Chat(ctx, history, llm.Options{})
	if err != nil {
		return "", err
	}
	c.turns = append(c.turns, llm.Message{Role: llm.RoleAssistant, Content: reply})
	return reply, nil
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Message, len(c.turns))
	copy(out, c.turns)
	return out
}

// Store maps session ids to their exclusively owned conversations.
type Store struct {
	mu      sync.RWMutex
	convs   map[string]*Conversation
	persona string
	ttl     time.Duration
	now     func() time.Time
}

// NewStore returns a store whose conversations start with the persona system turn
// and are evicted after ttl without activity.
func NewStore(persona string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		convs:   make(map[string]*Conversation),
		persona: persona,
		ttl:     ttl,
		now:     time.Now,
	}
}

// IssueID returns sessionID when it is well formed, otherwise a fresh id. No
// conversation is created.
func IssueID(sessionID string) string {
	if !validSessionID(sessionID) {
		return uuid.NewString()
	}
	return sessionID
}

// Acquire returns the conversation for sessionID, creating it if needed. An
// empty or malformed id gets a freshly issued one. Acquiring counts as
// activity, so the janitor leaves the conversation alone for another ttl.
func (s *Store) Acquire(sessionID string) *Conversation {
	sessionID = IssueID(sessionID)

	s.mu.RLock()
	c, ok := s.convs[sessionID]
	if ok {
		c.lastActive.Store(s.now().UnixNano())
	}
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[sessionID]; ok {
		c.lastActive.Store(s.now().UnixNano())
		return c
	}
	c = newConversation(sessionID, s.persona, s.now())
	s.convs[sessionID] = c
	metrics.SetActiveConversations(len(s.convs))
	return c
}

// Delete drops a conversation, e.g. when its websocket closes.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, sessionID)
	metrics.SetActiveConversations(len(s.convs))
}

// Len reports the number of live conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

// StartJanitor evicts idle conversations every interval until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.expireIdle(); n > 0 {
					telemetry.Info("conversation.expired", map[string]any{"evicted": n, "active": s.Len()})
				}
			}
		}
	}()
}

func (s *Store) expireIdle() int {
	cutoff := s.now().Add(-s.ttl).UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, c := range s.convs {
		if c.lastActive.Load() > cutoff {
			continue
		}
		// A conversation mid-turn is not idle.
		if !c.mu.TryLock() {
			continue
		}
		delete(s.convs, id)
		c.mu.Unlock()
		evicted++
	}
	metrics.SetActiveConversations(len(s.convs))
	return evicted
}

func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.', r == ':':
		default:
			return false
		}
	}
	return true
}
