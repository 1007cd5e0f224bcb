package wizard

import (
	"sync"
	"time"

	"masu/utils"

	"go.uber.org/zap"
)

// Registry tracks live controllers by session id and sweeps idle ones.
// Sweeping only tears down in-memory state; persisted snapshots remain for
// recovery.
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
	idleAfter   time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewRegistry(idleAfter time.Duration) *Registry {
	r := &Registry{
		controllers: make(map[string]*Controller),
		idleAfter:   idleAfter,
		stop:        make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Put registers a controller under its session id.
func (r *Registry) Put(c *Controller) {
	sess := c.Session()
	r.mu.Lock()
	r.controllers[sess.SessionID] = c
	r.mu.Unlock()
}

// Get returns the controller for the session id, or nil.
func (r *Registry) Get(sessionID string) *Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.controllers[sessionID]
}

// Remove tears down and drops the controller.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	c := r.controllers[sessionID]
	delete(r.controllers, sessionID)
	r.mu.Unlock()
	if c != nil {
		c.Teardown()
	}
}

// Close stops the sweeper and tears down every live controller.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.mu.Lock()
	for id, c := range r.controllers {
		c.Teardown()
		delete(r.controllers, id)
	}
	r.mu.Unlock()
}

func (r *Registry) sweep() {
	interval := r.idleAfter / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.idleAfter)
			var stale []string
			r.mu.RLock()
			for id, c := range r.controllers {
				if c.LastActive().Before(cutoff) {
					stale = append(stale, id)
				}
			}
			r.mu.RUnlock()
			for _, id := range stale {
				utils.GetLogger().Info("Sweeping idle session", zap.String("sessionId", id))
				r.Remove(id)
			}
		}
	}
}
