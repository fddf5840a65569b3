package memory

import (
	"errors"
	"strings"
	"sync"

	"github.com/petasbytes/olier/internal/windowing"
)

// Role tags a Turn with its speaker.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ErrInvalidTurn is returned by Append for turns that cannot join a conversation.
var ErrInvalidTurn = errors.New("memory: invalid turn")

// Conversation is the ordered turn history of one session.
// The first turn is always the system prompt; it is never removed.
type Conversation struct {
	mu     sync.RWMutex
	turns  []Turn
	window int
}

// NewConversation starts a conversation holding only the system prompt.
// window <= 0 selects windowing.DefaultWindow.
func NewConversation(systemPrompt string, window int) *Conversation {
	if window <= 0 {
		window = windowing.DefaultWindow
	}
	return &Conversation{
		turns:  []Turn{{Role: RoleSystem, Content: systemPrompt}},
		window: window,
	}
}

// Append adds a user or assistant turn to the end of the conversation.
func (c *Conversation) Append(t Turn) error {
	if t.Role != RoleUser && t.Role != RoleAssistant {
		return ErrInvalidTurn
	}
	if t.Content == "" {
		return ErrInvalidTurn
	}
	c.mu.Lock()
	c.turns = append(c.turns, t)
	c.mu.Unlock()
	return nil
}

// Truncate returns the system turn followed by the most recent window
// non-system turns, in original order. It does not modify c.
func (c *Conversation) Truncate() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	view, _ := windowing.Retain(c.turns, c.window, isSystem)
	return view
}

// Prune replaces the conversation with its truncated view.
func (c *Conversation) Prune() windowing.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, stats := windowing.Retain(c.turns, c.window, isSystem)
	c.turns = view
	return stats
}

// Turns returns a copy of the full history.
func (c *Conversation) Turns() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Visible returns the non-system turns, the part of the history shown to users.
func (c *Conversation) Visible() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, 0, len(c.turns))
	for _, t := range c.turns {
		if !isSystem(t) {
			out = append(out, t)
		}
	}
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// LastUser returns the content of the newest user turn, if any.
func (c *Conversation) LastUser() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.turns) - 1; i >= 0; i-- {
		if c.turns[i].Role == RoleUser {
			return c.turns[i].Content, true
		}
	}
	return "", false
}

// Transcript renders the visible history as "role: content" lines.
func (c *Conversation) Transcript() string {
	var b strings.Builder
	for i, t := range c.Visible() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
	}
	return b.String()
}

// EstimateTokens approximates the input cost of turns with the heuristic counter.
func EstimateTokens(turns []Turn) int {
	texts := make([]string, len(turns))
	for i, t := range turns {
		texts[i] = t.Content
	}
	return windowing.Estimate(windowing.HeuristicCounter{}, texts...)
}

func isSystem(t Turn) bool { return t.Role == RoleSystem }
