// Package dedupe tracks which events a batch has already taken.
package dedupe

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/gridcast/internal/domain/model"
)

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord removes a key, allowing it to be taken again.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// EventID is the identity of an event key for deduplication: year plus
// country and location, case-folded and trimmed.
func EventID(k model.EventKey) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(k.Country)))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(k.Location)))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(k.Year))
	return b.String()
}

// inMemoryDeduper implements Deduper with a map and an insertion-ordered
// ring. When bounded, the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> slot in order
	order   []string       // ring of keys, "" marks a freed slot
	next    int
	maxSize int // 0 or negative = unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.order = make([]string, d.maxSize)
	}
	return d
}

// SeenAndRecord atomically checks if key was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}

	if old := d.order[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.order[d.next] = key
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

// Unrecord removes key from the seen set.
func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.order[slot] = ""
	}
}

// Size returns the current number of recorded keys.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
