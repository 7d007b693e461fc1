package predicate

import "sync"

// Blackboard is thread-safe storage for the facts conditions read: input,
// sensor readings, timers owned by the host.
type Blackboard struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewBlackboard creates an empty blackboard.
func NewBlackboard() *Blackboard {
	return &Blackboard{
		data: make(map[string]any),
	}
}

// Get retrieves a value by key.
func (b *Blackboard) Get(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok
}

// Set stores a value by key.
func (b *Blackboard) Set(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
}

// Delete removes a key.
func (b *Blackboard) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// Bool returns the value at key if it is a bool.
func (b *Blackboard) Bool(key string) (bool, bool) {
	v, ok := b.Get(key)
	if !ok {
		return false, false
	}
	bv, ok := v.(bool)
	return bv, ok
}

// Float returns the value at key converted to float64 if it is numeric.
func (b *Blackboard) Float(key string) (float64, bool) {
	v, ok := b.Get(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Snapshot returns a copy of all entries.
func (b *Blackboard) Snapshot() map[string]any {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snapshot := make(map[string]any, len(b.data))
	for k, v := range b.data {
		snapshot[k] = v
	}
	return snapshot
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
