package windowing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/olier/internal/windowing"
)

// items use an "s" prefix for pinned entries.
func isPinned(s string) bool { return strings.HasPrefix(s, "s") }

func TestRetain_Table(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		n     int
		want  []string
		stats windowing.Stats
	}{
		{
			name:  "pinned only",
			items: []string{"s0"},
			n:     5,
			want:  []string{"s0"},
			stats: windowing.Stats{Window: 5, Pinned: 1},
		},
		{
			name:  "under window keeps everything",
			items: []string{"s0", "u1", "a1", "u2"},
			n:     5,
			want:  []string{"s0", "u1", "a1", "u2"},
			stats: windowing.Stats{Window: 5, Pinned: 1, Kept: 3},
		},
		{
			name:  "exactly window",
			items: []string{"s0", "u1", "a1", "u2", "a2", "u3"},
			n:     5,
			want:  []string{"s0", "u1", "a1", "u2", "a2", "u3"},
			stats: windowing.Stats{Window: 5, Pinned: 1, Kept: 5},
		},
		{
			name:  "over window drops oldest",
			items: []string{"s0", "u1", "a1", "u2", "a2", "u3", "a3", "u4"},
			n:     5,
			want:  []string{"s0", "u2", "a2", "u3", "a3", "u4"},
			stats: windowing.Stats{Window: 5, Pinned: 1, Kept: 5, Dropped: 2},
		},
		{
			name:  "zero window uses default and starts mid-exchange",
			items: []string{"s0", "u1", "a1", "u2", "a2", "u3", "a3"},
			n:     0,
			want:  []string{"s0", "a1", "u2", "a2", "u3", "a3"},
			stats: windowing.Stats{Window: windowing.DefaultWindow, Pinned: 1, Kept: 5, Dropped: 1},
		},
		{
			name:  "pinned item not at head is moved first",
			items: []string{"u1", "s0", "a1"},
			n:     1,
			want:  []string{"s0", "a1"},
			stats: windowing.Stats{Window: 1, Pinned: 1, Kept: 1, Dropped: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := windowing.Retain(tt.items, tt.n, isPinned)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.stats, stats)
		})
	}
}

func TestRetain_DoesNotAliasInput(t *testing.T) {
	in := []string{"s0", "u1", "a1"}
	got, _ := windowing.Retain(in, 5, isPinned)
	require.Len(t, got, 3)
	got[1] = "mutated"
	assert.Equal(t, "u1", in[1])
}

func TestRetain_Idempotent(t *testing.T) {
	in := []string{"s0", "u1", "a1", "u2", "a2", "u3", "a3", "u4", "a4"}
	once, _ := windowing.Retain(in, 5, isPinned)
	twice, stats := windowing.Retain(once, 5, isPinned)
	assert.Equal(t, once, twice)
	assert.Zero(t, stats.Dropped)
}
