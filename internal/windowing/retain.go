package windowing

// DefaultWindow is the number of most recent unpinned items kept by Retain.
//
// The value is odd, so a window over alternating user/assistant turns may
// start with either role.
const DefaultWindow = 5

// Stats summarizes the result of a Retain call.
//
// Fields:
// - Window: the window size used.
// - Pinned: number of pinned items carried over.
// - Kept: number of unpinned items inside the window.
// - Dropped: number of unpinned items that fell out of the window.
type Stats struct {
	Window  int
	Pinned  int
	Kept    int
	Dropped int
}

// Retain returns the pinned items followed by the last n unpinned items.
//
// Rules:
// - Pinned items keep their relative order and always come first.
// - Unpinned items keep their relative order; only the oldest are dropped.
// - If there are n or fewer unpinned items, all of them are kept.
// - n <= 0 falls back to DefaultWindow.
//
// The returned slice is freshly allocated; items is never modified.
func Retain[T any](items []T, n int, pinned func(T) bool) ([]T, Stats) {
	if n <= 0 {
		n = DefaultWindow
	}

	var head, tail []T
	for _, it := range items {
		if pinned(it) {
			head = append(head, it)
			continue
		}
		tail = append(tail, it)
	}

	stats := Stats{Window: n, Pinned: len(head)}
	if len(tail) > n {
		stats.Dropped = len(tail) - n
		tail = tail[len(tail)-n:]
	}
	stats.Kept = len(tail)

	out := make([]T, 0, len(head)+len(tail))
	out = append(out, head...)
	out = append(out, tail...)
	vlogf("retain window=%d pinned=%d kept=%d dropped=%d", stats.Window, stats.Pinned, stats.Kept, stats.Dropped)
	return out, stats
}
