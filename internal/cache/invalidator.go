// Package cache provides the named query-cache invalidation registry used
// by extension lifecycle events.
//
// Extension events never patch granular state; they mark a query key stale
// so the next read refetches authoritative data. Refetch hooks registered
// per key run synchronously on invalidation.
package cache

import "sync"

// KeyExtensionsInstalled is the query key invalidated by every extension
// lifecycle event.
const KeyExtensionsInstalled = "extensions-installed"

// Invalidator tracks stale marks per query key and runs registered refetch
// hooks when a key is invalidated.
type Invalidator struct {
	mu     sync.Mutex
	stale  map[string]bool
	hooks  map[string]map[int]func()
	nextID int
}

// New creates an empty invalidator.
func New() *Invalidator {
	return &Invalidator{
		stale: make(map[string]bool),
		hooks: make(map[string]map[int]func()),
	}
}

// Invalidate marks a key stale and runs its hooks. Safe to call for keys
// nobody registered; the stale mark still sticks.
func (i *Invalidator) Invalidate(key string) {
	i.mu.Lock()
	i.stale[key] = true
	hooks := make([]func(), 0, len(i.hooks[key]))
	for _, hook := range i.hooks[key] {
		hooks = append(hooks, hook)
	}
	i.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

// IsStale reports whether a key has been invalidated since its last refresh.
func (i *Invalidator) IsStale(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stale[key]
}

// MarkFresh clears the stale mark after a successful refetch.
func (i *Invalidator) MarkFresh(key string) {
	i.mu.Lock()
	delete(i.stale, key)
	i.mu.Unlock()
}

// OnInvalidate registers a hook to run whenever the key is invalidated. The
// returned cancel func removes the hook; call it on teardown.
func (i *Invalidator) OnInvalidate(key string, fn func()) (cancel func()) {
	i.mu.Lock()
	if i.hooks[key] == nil {
		i.hooks[key] = make(map[int]func())
	}
	id := i.nextID
	i.nextID++
	i.hooks[key][id] = fn
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		delete(i.hooks[key], id)
		i.mu.Unlock()
	}
}
