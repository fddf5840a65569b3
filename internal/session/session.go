// Package session keeps one in-memory conversation per browser or terminal session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/petasbytes/olier/internal/runner"
	"github.com/petasbytes/olier/internal/telemetry"
	"github.com/petasbytes/olier/memory"
)

// DefaultIdleTTL is how long an untouched session survives a Sweep.
const DefaultIdleTTL = 12 * time.Hour

// ErrBusy is returned by Submit while another reply is streaming for the session.
var ErrBusy = errors.New("session: reply in progress")

// Session is one user's conversation. At most one Submit runs at a time.
type Session struct {
	ID   string
	Conv *memory.Conversation

	busy     atomic.Bool
	lastSeen atomic.Int64 // unix nanos
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// Busy reports whether a reply is streaming.
func (s *Session) Busy() bool { return s.busy.Load() }

// Submit appends the user text, prunes the history to its window and streams
// the reply through r. The user turn stays in the history even when the
// stream fails.
func (s *Session) Submit(ctx context.Context, r *runner.Runner, model, text string, sink runner.Sink) (runner.Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return runner.Result{}, ErrBusy
	}
	defer s.busy.Store(false)

	if err := s.Conv.Append(memory.Turn{Role: memory.RoleUser, Content: text}); err != nil {
		return runner.Result{}, fmt.Errorf("submit: %w", err)
	}

	ctx, _ = telemetry.EnsureCycleID(ctx)
	telemetry.EmitLocalFeatures(ctx, text)

	stats := s.Conv.Prune()
	if stats.Dropped > 0 {
		telemetry.EmitCycle(ctx, "history_pruned", map[string]any{
			"session_id": s.ID,
			"window":     stats.Window,
			"kept":       stats.Kept,
			"dropped":    stats.Dropped,
			"est_tokens": memory.EstimateTokens(s.Conv.Turns()),
		})
	}

	return r.Run(ctx, model, s.Conv, sink)
}

// Store maps session ids to sessions.
type Store struct {
	SystemPrompt string
	Window       int

	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore returns an empty store whose sessions start from systemPrompt.
func NewStore(systemPrompt string, window int) *Store {
	return &Store{
		SystemPrompt: systemPrompt,
		Window:       window,
		sessions:     make(map[string]*Session),
		now:          time.Now,
	}
}

// Get returns the session for id, creating a fresh one with a new id when id
// is empty or unknown. created reports which happened.
func (st *Store) Get(id string) (s *Session, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	if s, ok := st.sessions[id]; ok && id != "" {
		s.touch(now)
		return s, false
	}
	s = &Session{
		ID:   uuid.NewString(),
		Conv: memory.NewConversation(st.SystemPrompt, st.Window),
	}
	s.touch(now)
	st.sessions[s.ID] = s
	return s, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than ttl and returns how many went.
// Sessions with a reply in flight are kept.
func (st *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-ttl).UnixNano()
	n := 0
	for id, s := range st.sessions {
		if s.Busy() || s.lastSeen.Load() >= cutoff {
			continue
		}
		delete(st.sessions, id)
		n++
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (st *Store) RunSweeper(ctx context.Context, interval, ttl time.Duration, onSweep func(removed int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
