package conversation

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUninitialized is returned when mounting against an owner that has not set
// up its sequence yet. An empty, non-nil sequence is fine.
var ErrUninitialized = errors.New("conversation: external sequence is not initialized")

// Update is a mutation request handed to an external owner. Exactly one of
// Replace or Apply is set.
type Update[T any] struct {
	// Replace is a literal new sequence (old items plus the new ones).
	Replace []T
	// Apply derives the new sequence from the owner's current one.
	Apply func(prev []T) []T
}

// Resolve computes the sequence an owner should store after this update.
func (u Update[T]) Resolve(prev []T) []T {
	if u.Apply != nil {
		return u.Apply(prev)
	}
	return u.Replace
}

// Appending returns an update that appends item to whatever the owner holds.
// The owner's slice is never written to.
func Appending[T any](item T) Update[T] {
	return Update[T]{Apply: func(prev []T) []T {
		next := make([]T, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, item)
	}}
}

// External is a sequence owned by the calling context. The widget reads it
// through get and requests changes through set; set is trusted to apply the
// update exactly as given.
type External[T any] struct {
	get func() []T
	set func(Update[T])
}

func NewExternal[T any](get func() []T, set func(Update[T])) (*External[T], error) {
	if get == nil || set == nil {
		return nil, errors.New("conversation: external store needs both a getter and a mutator")
	}
	if get() == nil {
		return nil, ErrUninitialized
	}
	return &External[T]{get: get, set: set}, nil
}

// Append asks the owner to append item.
func (e *External[T]) Append(item T) {
	e.set(Appending(item))
}

// All returns a copy of the owner's current sequence.
func (e *External[T]) All() []T {
	return clone(e.get())
}

func (e *External[T]) Len() int { return len(e.get()) }

// Owner is a minimal external owner: it holds a sequence and applies updates
// read-then-append under a lock. Hosts that keep their own state do not need it.
type Owner[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewOwner returns an initialized owner. A nil seed becomes an empty sequence.
func NewOwner[T any](seed ...T) *Owner[T] {
	items := make([]T, 0, len(seed))
	return &Owner[T]{items: append(items, seed...)}
}

func (o *Owner[T]) Get() []T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.items
}

func (o *Owner[T]) Set(u Update[T]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = u.Resolve(o.items)
}

// Store mounts an External view over this owner.
func (o *Owner[T]) Store() *External[T] {
	return &External[T]{get: o.Get, set: o.Set}
}
