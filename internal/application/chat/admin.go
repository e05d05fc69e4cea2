package chat

import (
	"sort"
	"sync"
)

// AdminRegistry is the set of identities currently in owner mode.
// Membership lasts until the owner types exit or the process restarts.
type AdminRegistry struct {
	mu      sync.RWMutex
	members map[string]struct{}
}

// NewAdminRegistry creates an empty registry
func NewAdminRegistry() *AdminRegistry {
	return &AdminRegistry{members: make(map[string]struct{})}
}

// Add signs an identity in
func (r *AdminRegistry) Add(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[identity] = struct{}{}
}

// Remove signs an identity out
func (r *AdminRegistry) Remove(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, identity)
}

// IsAdmin reports whether identity is in owner mode
func (r *AdminRegistry) IsAdmin(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[identity]
	return ok
}

// Members returns the signed-in identities in sorted order
func (r *AdminRegistry) Members() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
