// Package providertest provides in-memory completion endpoints for tests.
package providertest

import (
	"context"
	"sync"

	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/memory"
)

// Call records one Stream invocation.
type Call struct {
	Model  string
	Turns  []memory.Turn
	Params provider.Params
}

// Fake is a provider.Provider that replays canned fragments.
//
// Fragments are yielded in order; FailAfter >= 0 ends the stream with Err
// after that many fragments. Gate, when set, blocks the first Next until it
// is closed or the stream context is done.
type Fake struct {
	Models    []string
	ListErr   error
	Fragments []string
	Err       error
	FailAfter int
	Gate      chan struct{}

	mu    sync.Mutex
	calls []Call
}

// New returns a Fake serving one model and the given fragments.
func New(fragments ...string) *Fake {
	return &Fake{Models: []string{"olier-test"}, Fragments: fragments, FailAfter: -1}
}

func (f *Fake) ListModels(ctx context.Context) ([]string, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Models, nil
}

func (f *Fake) Stream(ctx context.Context, model string, turns []memory.Turn, p provider.Params) provider.Stream {
	f.mu.Lock()
	cp := make([]memory.Turn, len(turns))
	copy(cp, turns)
	f.calls = append(f.calls, Call{Model: model, Turns: cp, Params: p})
	f.mu.Unlock()
	return &SliceStream{ctx: ctx, frags: f.Fragments, failAfter: f.FailAfter, failErr: f.Err, gate: f.Gate}
}

// Calls returns the recorded Stream invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// SliceStream yields fragments from a slice.
type SliceStream struct {
	ctx       context.Context
	frags     []string
	failAfter int
	failErr   error
	gate      chan struct{}

	i      int
	cur    string
	err    error
	closed bool
}

// NewSliceStream returns a stream over frags that never fails.
func NewSliceStream(frags ...string) *SliceStream {
	return &SliceStream{ctx: context.Background(), frags: frags, failAfter: -1}
}

func (s *SliceStream) Next() bool {
	s.cur = ""
	if s.err != nil || s.closed {
		return false
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		}
		s.gate = nil
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if s.failAfter >= 0 && s.i >= s.failAfter {
		s.err = s.failErr
		return false
	}
	if s.i >= len(s.frags) {
		return false
	}
	s.cur = s.frags[s.i]
	s.i++
	return true
}

func (s *SliceStream) Fragment() string { return s.cur }
func (s *SliceStream) Err() error       { return s.err }

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool { return s.closed }
