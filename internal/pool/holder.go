package pool

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrAlreadyDrained is returned when a Holder is used after Drain.
// It signals a defect in the caller, not bad input.
var ErrAlreadyDrained = errors.New("pool: holder already drained")

// Holder stages entries that may need a second pass before they are
// emitted. It cannot be built into a pool; it must be drained exactly once.
// Safe for concurrent use.
type Holder struct {
	mu      sync.Mutex
	entries map[string]Entry
	drained bool
}

// NewHolder creates an empty staging buffer.
func NewHolder() *Holder {
	return &Holder{entries: make(map[string]Entry)}
}

// Add stages an entry.
func (h *Holder) Add(e Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.drained {
		return ErrAlreadyDrained
	}
	if _, dup := h.entries[e.path]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, e.path)
	}
	h.entries[e.path] = e
	return nil
}

// Len returns the number of staged entries.
func (h *Holder) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Drain hands every staged entry to fn in path order and empties the
// holder. It may be called once; later calls return ErrAlreadyDrained.
// The first error from fn stops the drain and is returned.
func (h *Holder) Drain(fn func(Entry) error) error {
	h.mu.Lock()
	if h.drained {
		h.mu.Unlock()
		return ErrAlreadyDrained
	}
	h.drained = true
	entries := make([]Entry, 0, len(h.entries))
	for _, e := range h.entries {
		entries = append(entries, e)
	}
	h.entries = nil
	h.mu.Unlock()

	slices.SortFunc(entries, func(x, y Entry) int {
		return strings.Compare(x.path, y.path)
	})
	for _, e := range entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}
