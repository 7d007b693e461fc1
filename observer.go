package hfsm

// Handle identifies an observer registration so it can be removed later.
type Handle uint64

type observer[T any] struct {
	handle Handle
	fn     func(T)
}

// observerList dispatches synchronously in registration order. Removal
// replaces the slice so a dispatch already in flight keeps its snapshot.
type observerList[T any] struct {
	items []observer[T]
}

func (l *observerList[T]) add(h Handle, fn func(T)) {
	l.items = append(l.items, observer[T]{handle: h, fn: fn})
}

func (l *observerList[T]) remove(h Handle) bool {
	for i, o := range l.items {
		if o.handle != h {
			continue
		}
		items := make([]observer[T], 0, len(l.items)-1)
		items = append(items, l.items[:i]...)
		items = append(items, l.items[i+1:]...)
		l.items = items
		return true
	}
	return false
}

func (l *observerList[T]) notify(v T) {
	items := l.items
	for i := range items {
		items[i].fn(v)
	}
}

// StateChange describes a change of the active leaf.
type StateChange struct {
	From *State // nil on the first activation
	To   *State
}
