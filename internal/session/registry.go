package session

import (
	"sync"
	"time"
)

// Live is a running session bound to one client connection.
type Live struct {
	ClientID   string
	Controller *Controller
	// Disconnect closes the client's transport; teardown follows from there.
	Disconnect func()
	Lock       *Lock

	mu         sync.Mutex
	lastActive time.Time
}

func (l *Live) touch(now time.Time) {
	l.mu.Lock()
	l.lastActive = now
	l.mu.Unlock()
}

func (l *Live) idleSince() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActive
}

// Registry tracks live sessions in this process, one per client.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Live
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Live),
		now:      time.Now,
	}
}

// Add registers l, returning the session it replaced, if any.
func (r *Registry) Add(l *Live) *Live {
	l.touch(r.now())
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.sessions[l.ClientID]
	r.sessions[l.ClientID] = l
	return prev
}

// Remove drops l if it is still the client's registered session.
func (r *Registry) Remove(l *Live) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[l.ClientID] == l {
		delete(r.sessions, l.ClientID)
	}
}

// Touch marks client activity.
func (r *Registry) Touch(l *Live) {
	l.touch(r.now())
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the live sessions split by whether they have been idle
// longer than ttl.
func (r *Registry) Snapshot(ttl time.Duration) (active, idle []*Live) {
	cutoff := r.now().Add(-ttl)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.sessions {
		if l.idleSince().Before(cutoff) {
			idle = append(idle, l)
		} else {
			active = append(active, l)
		}
	}
	return active, idle
}
