package handlers

import (
	"log"
	"sort"
	"sync"

	"github.com/EasterCompany/dex-athena-service/types"
)

// Registry holds the plugin commands loaded from the manifest.
// A failed reload keeps the previously loaded plugins.
type Registry struct {
	path     string
	builtins map[string]bool

	mu       sync.RWMutex
	handlers map[string]types.HandlerConfig
}

func NewRegistry(path string, builtins []string) *Registry {
	b := make(map[string]bool, len(builtins))
	for _, name := range builtins {
		b[name] = true
	}
	return &Registry{path: path, builtins: b, handlers: make(map[string]types.HandlerConfig)}
}

// Path returns the manifest location.
func (r *Registry) Path() string { return r.path }

// Reload reads and validates the manifest, swapping it in only when valid.
func (r *Registry) Reload() (int, error) {
	reg, err := LoadManifest(r.path)
	if err != nil {
		log.Printf("Plugins: reload failed, keeping %d plugins: %v", r.Count(), err)
		return r.Count(), err
	}
	if problems := Validate(reg, r.builtins); len(problems) > 0 {
		err := &ManifestError{Problems: problems}
		log.Printf("Plugins: reload rejected, keeping %d plugins: %v", r.Count(), err)
		return r.Count(), err
	}

	next := make(map[string]types.HandlerConfig, len(reg.Handlers))
	for _, h := range reg.Handlers {
		next[h.Name] = h
	}

	r.mu.Lock()
	r.handlers = next
	r.mu.Unlock()

	log.Printf("Plugins: loaded %d plugins from %s", len(next), r.path)
	return len(next), nil
}

// GetHandler returns a plugin by command name
func (r *Registry) GetHandler(name string) (types.HandlerConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// List returns the loaded plugins sorted by name.
func (r *Registry) List() []types.HandlerConfig {
	r.mu.RLock()
	out := make([]types.HandlerConfig, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
