package metrics

import (
	"time"
	"unicode/utf8"
)

// StreamStats accumulates timing and size of one streamed reply.
// It is not safe for concurrent use.
type StreamStats struct {
	start      time.Time
	firstDelta time.Duration
	last       time.Time

	Chunks    int // every chunk read, including empty ones
	Fragments int // chunks that carried text
	Runes     int
}

// StartStream begins measuring a stream opened at now.
func StartStream(now time.Time) *StreamStats {
	return &StreamStats{start: now, last: now}
}

// Observe records one chunk read at now.
func (s *StreamStats) Observe(frag string, now time.Time) {
	s.Chunks++
	s.last = now
	if frag == "" {
		return
	}
	if s.Fragments == 0 {
		s.firstDelta = now.Sub(s.start)
	}
	s.Fragments++
	s.Runes += utf8.RuneCountInString(frag)
}

// FirstFragment is the latency to the first non-empty fragment, zero if none arrived.
func (s *StreamStats) FirstFragment() time.Duration { return s.firstDelta }

// Elapsed is the time between the start and the last observed chunk.
func (s *StreamStats) Elapsed() time.Duration { return s.last.Sub(s.start) }

// Fields renders the stats for a telemetry event.
func (s *StreamStats) Fields() map[string]any {
	return map[string]any{
		"chunks":            s.Chunks,
		"fragments":         s.Fragments,
		"runes":             s.Runes,
		"first_fragment_ms": s.firstDelta.Milliseconds(),
		"elapsed_ms":        s.Elapsed().Milliseconds(),
	}
}
