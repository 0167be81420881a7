package monitor

import (
	"sync"

	"GuardChat/internal/gateway"
)

// Ring provides a fixed-capacity circular buffer of live activity rows
// for ticker-style display. When full, the oldest entry is overwritten.
// A cycling offset lets the view rotate through the contents one step at
// a time.
type Ring struct {
	mu     sync.Mutex
	rows   []gateway.LiveRow
	head   int // next write position
	full   bool
	offset int // cycling view position
}

// NewRing creates a ring buffer with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 20
	}
	return &Ring{rows: make([]gateway.LiveRow, capacity)}
}

// Capacity returns the fixed maximum number of entries.
func (r *Ring) Capacity() int {
	return len(r.rows)
}

// Len returns the number of entries currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

func (r *Ring) lenLocked() int {
	if r.full {
		return len(r.rows)
	}
	return r.head
}

// Push appends one entry, overwriting the oldest when full.
func (r *Ring) Push(row gateway.LiveRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushLocked(row)
}

func (r *Ring) pushLocked(row gateway.LiveRow) {
	r.rows[r.head] = row
	r.head = (r.head + 1) % len(r.rows)
	if r.head == 0 {
		r.full = true
	}
}

// Replace swaps the contents for the latest live payload. Rows arrive
// newest first from the gateway; they are stored oldest first so Window
// reads chronologically. Entries beyond capacity are dropped silently.
func (r *Ring) Replace(rows []gateway.LiveRow) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head = 0
	r.full = false
	r.offset = 0

	newest := len(rows)
	if newest > len(r.rows) {
		newest = len(r.rows)
	}
	for i := newest - 1; i >= 0; i-- {
		r.pushLocked(rows[i])
	}
}

// Window returns up to n entries starting at the cycling offset,
// wrapping around the buffer. An empty ring yields nil: the ticker
// renders nothing rather than fabricating placeholder entries.
func (r *Ring) Window(n int) []gateway.LiveRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.lenLocked()
	if size == 0 {
		return nil
	}
	if n > size {
		n = size
	}

	out := make([]gateway.LiveRow, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.rows[r.index((r.offset+i)%size)])
	}
	return out
}

// Advance rotates the cycling window by one entry.
func (r *Ring) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := r.lenLocked()
	if size == 0 {
		r.offset = 0
		return
	}
	r.offset = (r.offset + 1) % size
}

// index maps a chronological position (0 = oldest) to a slot.
func (r *Ring) index(pos int) int {
	if !r.full {
		return pos
	}
	return (r.head + pos) % len(r.rows)
}
