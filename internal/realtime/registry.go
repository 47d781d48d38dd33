package realtime

import "sync"

// Registry tracks which users currently hold a live socket in each group
// room. It is a presence hint for the UI only; membership decisions always go
// to the store, never to this map.
type Registry struct {
	mu     sync.RWMutex
	groups map[uint]map[uint]struct{}
}

func NewRegistry() *Registry {
	return &Registry{groups: make(map[uint]map[uint]struct{})}
}

func (r *Registry) Track(groupID, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, ok := r.groups[groupID]
	if !ok {
		users = make(map[uint]struct{})
		r.groups[groupID] = users
	}
	users[userID] = struct{}{}
}

func (r *Registry) Untrack(groupID, userID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if users, ok := r.groups[groupID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(r.groups, groupID)
		}
	}
}

// Connected reports whether the user currently has a live session in the
// group room.
func (r *Registry) Connected(groupID, userID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users, ok := r.groups[groupID]
	if !ok {
		return false
	}
	_, ok = users[userID]
	return ok
}

// Drop removes the group's presence set entirely, used when a room closes.
func (r *Registry) Drop(groupID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, groupID)
}
