package engine

import "sync"

// LogRing is a bounded ring of a user's most recent log lines.
type LogRing struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewLogRing creates a ring keeping at most cap lines.
func NewLogRing(cap int) *LogRing {
	if cap <= 0 {
		cap = 500
	}
	return &LogRing{lines: make([]string, cap)}
}

// Append adds a line, evicting the oldest when full.
func (r *LogRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line
	r.next++
	if r.next == len(r.lines) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns the retained lines, oldest first.
func (r *LogRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]string, r.next)
		copy(out, r.lines[:r.next])
		return out
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	out = append(out, r.lines[:r.next]...)
	return out
}
