package resource

import (
	"errors"
	"io"
	"sync"
)

var (
	ErrClosed    = errors.New("resource table closed")
	ErrExhausted = errors.New("resource table exhausted")
)

// Table is a descriptor table with free-list reuse.
// Thread-safe.
type Table[T any] struct {
	entries   []entry[T]
	freeList  []Handle
	observers []Observer
	base      Handle
	limit     int
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

type entry[T any] struct {
	value T
	valid bool
}

// NewTable creates a table allocating handles from base upward.
// A positive limit caps the number of live handles.
func NewTable[T any](base Handle, limit int) *Table[T] {
	if base < 0 {
		base = 0
	}
	return &Table[T]{
		entries:  make([]entry[T], 0, 16),
		freeList: make([]Handle, 0, 8),
		base:     base,
		limit:    limit,
	}
}

// Insert stores a value and returns its handle.
func (t *Table[T]) Insert(value T) (Handle, error) {
	t.mu.Lock()

	if t.closed {
		t.mu.Unlock()
		return -1, ErrClosed
	}

	var handle Handle
	if len(t.freeList) > 0 {
		handle = t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[handle-t.base] = entry[T]{value: value, valid: true}
	} else {
		if t.limit > 0 && len(t.entries) >= t.limit {
			t.mu.Unlock()
			return -1, ErrExhausted
		}
		t.entries = append(t.entries, entry[T]{value: value, valid: true})
		handle = t.base + Handle(len(t.entries)-1)
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Value: value})
	return handle, nil
}

// Get retrieves a value by handle.
func (t *Table[T]) Get(handle Handle) (T, bool) {
	var zero T

	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.index(handle)
	if !ok {
		return zero, false
	}
	return t.entries[idx].value, true
}

// Remove releases a handle and returns (value, true) if it was live.
// The value is not closed.
func (t *Table[T]) Remove(handle Handle) (T, bool) {
	var zero T

	t.mu.Lock()
	idx, ok := t.index(handle)
	if !ok {
		t.mu.Unlock()
		return zero, false
	}
	value := t.entries[idx].value
	t.entries[idx] = entry[T]{}
	t.freeList = append(t.freeList, handle)
	t.mu.Unlock()

	t.notify(Event{Type: EventRemoved, Handle: handle, Value: value})
	return value, true
}

// index must be called with mu held.
func (t *Table[T]) index(handle Handle) (int, bool) {
	if handle < t.base {
		return 0, false
	}
	idx := int(handle - t.base)
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return 0, false
	}
	return idx, true
}

// Subscribe adds an observer for lifecycle events.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over live handles in ascending order.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, e := range t.entries {
		if e.valid {
			if !fn(t.base+Handle(i), e.value) {
				break
			}
		}
	}
}

// Close closes every live value implementing io.Closer and stops
// accepting inserts. The first close error is returned.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	entries := t.entries
	t.entries = nil
	t.freeList = nil
	t.mu.Unlock()

	var firstErr error
	for i, e := range entries {
		if !e.valid {
			continue
		}
		if c, ok := any(e.value).(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		t.notify(Event{Type: EventRemoved, Handle: t.base + Handle(i), Value: e.value})
	}
	return firstErr
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
