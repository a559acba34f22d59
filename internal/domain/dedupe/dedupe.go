// Package dedupe tracks replayed message IDs so a message re-fed to the
// scoreboard is attributed at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// defaultMaxSize bounds memory when no size is configured.
const defaultMaxSize = 50000

// Deduper records seen message IDs.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if
	// not. It returns true when id was already recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so it can be processed again, e.g. after its
	// attribution was rejected.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps IDs in a map. In bounded mode an insertion-ordered
// list evicts the oldest ID once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front is oldest; nil in unbounded mode
	maxSize int        // <= 0 means unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	if d.maxSize > 0 {
		d.order = list.New()
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.order == nil {
		d.seen[id] = nil
		return false
	}

	if len(d.seen) >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.seen[id]
	if !ok {
		return
	}
	if e != nil {
		d.order.Remove(e)
	}
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
