package conversation

// Log is an append-only sequence owned by the widget itself.
// The zero value is an empty log ready to use.
type Log[T any] struct {
	items []T
}

// NewLog seeds a log with initial items. The seed slice is copied.
func NewLog[T any](seed ...T) *Log[T] {
	l := &Log[T]{}
	if len(seed) > 0 {
		l.items = append(make([]T, 0, len(seed)), seed...)
	}
	return l
}

// Append adds one item at the end.
func (l *Log[T]) Append(item T) {
	l.items = append(l.items, item)
}

// All returns a copy of the items, oldest first.
func (l *Log[T]) All() []T {
	return clone(l.items)
}

func (l *Log[T]) Len() int { return len(l.items) }

// Last returns the newest item.
func (l *Log[T]) Last() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[len(l.items)-1], true
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
