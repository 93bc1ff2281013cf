package backend

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Registry maps configured model ids to the backend family that serves
// them and answers availability queries. Availability is cached briefly
// so routing does not hammer the backends' model-list endpoints.
type Registry struct {
	mu       sync.Mutex
	backends map[string]Backend // model id -> backend
	ttl      time.Duration
	now      func() time.Time

	cache   map[string]bool // backend name -> model id set flattened as name+"/"+model
	cachedA time.Time
}

// NewRegistry builds an empty registry. cacheTTL bounds how stale the
// availability view may be; zero disables caching.
func NewRegistry(cacheTTL time.Duration) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		ttl:      cacheTTL,
		now:      time.Now,
	}
}

// Register binds each model id to the backend serving it. Later
// registrations for the same id win.
func (r *Registry) Register(b Backend, modelIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range modelIDs {
		if id != "" {
			r.backends[id] = b
		}
	}
}

// BackendFor returns the backend configured for modelID.
func (r *Registry) BackendFor(modelID string) (Backend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.backends[modelID]
	return b, ok
}

// Models lists every configured model id in lexical order.
func (r *Registry) Models() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.backends))
	for id := range r.backends {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Available reports whether modelID is configured and currently served by
// its backend. Unreachable backends count as unavailable, not as errors.
func (r *Registry) Available(ctx context.Context, modelID string) bool {
	b, ok := r.BackendFor(modelID)
	if !ok {
		return false
	}
	served := r.servedSet(ctx)
	return served[b.Name()+"/"+modelID]
}

// servedSet returns the cached (backend, model) availability set,
// refreshing it when stale.
func (r *Registry) servedSet(ctx context.Context) map[string]bool {
	r.mu.Lock()
	if r.cache != nil && r.ttl > 0 && r.now().Sub(r.cachedA) < r.ttl {
		c := r.cache
		r.mu.Unlock()
		return c
	}
	// Snapshot distinct backends under the lock, probe without it.
	distinct := make(map[string]Backend)
	for _, b := range r.backends {
		distinct[b.Name()] = b
	}
	r.mu.Unlock()

	set := make(map[string]bool)
	for name, b := range distinct {
		models, err := b.ListModels(ctx)
		if err != nil {
			continue
		}
		for _, m := range models {
			set[name+"/"+m] = true
		}
	}

	r.mu.Lock()
	r.cache = set
	r.cachedA = r.now()
	r.mu.Unlock()
	return set
}

// Invalidate drops the availability cache; the next query re-probes.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}
