package session

import (
	"fmt"
	"sync"
	"time"
)

// Message is one entry of a session transcript. Tool result messages keep
// the call that produced them so the history can be replayed to any model
// backend.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolName   string
	ToolArgs   map[string]any
	Timestamp  time.Time
}

// DefaultMaxMessages bounds a session transcript; the oldest messages fall
// off first once the bound is hit.
const DefaultMaxMessages = 40

// Session is one bounded conversation. All mutation happens under the
// session's own lock; the turn lock on top of it serializes whole agent
// turns, so concurrent requests for the same session queue up instead of
// interleaving their tool calls.
type Session struct {
	key string

	mu       sync.Mutex
	messages []Message
	max      int

	turnMu sync.Mutex
}

func New(key string, maxMessages int) *Session {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Session{key: key, max: maxMessages}
}

func (s *Session) Key() string { return s.key }

// Append records a message, evicting from the front when full.
func (s *Session) Append(m Message) error {
	if m.Role == "" {
		return fmt.Errorf("message with empty role")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	if len(s.messages) > s.max {
		over := len(s.messages) - s.max
		s.messages = append([]Message(nil), s.messages[over:]...)
	}
	return nil
}

// History returns a copy of the transcript in order.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Reset drops the transcript but keeps the session key valid.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// AcquireTurn blocks until this goroutine may run a full agent turn.
func (s *Session) AcquireTurn() { s.turnMu.Lock() }

// ReleaseTurn ends the turn started by AcquireTurn.
func (s *Session) ReleaseTurn() { s.turnMu.Unlock() }
