package bindings

import "sync"

// The registry maps the integer contexts handed to native callbacks back to
// Go values, since Go pointers may not be stored in native memory.

var (
	mu   sync.Mutex
	next uintptr = 1
	reg          = map[uintptr]any{}
)

// Put stores v and returns its context id. Ids are never reused.
func Put(v any) uintptr {
	mu.Lock()
	id := next
	next++
	reg[id] = v
	mu.Unlock()
	return id
}

// Get returns the value stored under id.
func Get(id uintptr) (any, bool) {
	mu.Lock()
	v, ok := reg[id]
	mu.Unlock()
	return v, ok
}

// Del forgets id. Later lookups fail.
func Del(id uintptr) {
	mu.Lock()
	delete(reg, id)
	mu.Unlock()
}

// Count returns the number of registered values.
func Count() int {
	mu.Lock()
	defer mu.Unlock()
	return len(reg)
}
