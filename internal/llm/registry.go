package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/EasterCompany/dex-athena-service/internal/storage"
)

// ModelInfo describes a registered model.
type ModelInfo struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	Status    string `json:"status"`
	LatencyMS int    `json:"latency_ms"`
}

type activeModelDoc struct {
	Name string `json:"name"`
}

// Registry holds the available models and routes completions to the active one.
type Registry struct {
	mu         sync.RWMutex
	models     []ModelInfo
	completers map[string]Completer
	active     string
	store      storage.Store
}

// NewRegistry returns an empty registry persisting its selection in store.
func NewRegistry(store storage.Store) *Registry {
	return &Registry{
		completers: make(map[string]Completer),
		store:      store,
	}
}

// Register adds a model. The first registered model becomes active.
func (r *Registry) Register(info ModelInfo, c Completer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.completers[info.Name]; !exists {
		r.models = append(r.models, info)
	}
	r.completers[info.Name] = c
	if r.active == "" {
		r.active = info.Name
	}
}

// Load restores the persisted selection, falling back to preferred and then
// to the first registered model.
func (r *Registry) Load(ctx context.Context, preferred string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.completers[preferred]; ok {
		r.active = preferred
	}

	if r.store == nil {
		return
	}
	var doc activeModelDoc
	if err := r.store.Get(ctx, storage.DocActiveModel, &doc); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Models: failed to load active model: %v", err)
		}
		return
	}
	if _, ok := r.completers[doc.Name]; ok {
		r.active = doc.Name
	}
}

// List returns the registered models in registration order.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ModelInfo(nil), r.models...)
}

// Active returns the active model.
func (r *Registry) Active() (ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(r.active)
}

func (r *Registry) find(name string) (ModelInfo, bool) {
	for _, m := range r.models {
		if m.Name == name {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// Switch makes name the active model and persists the choice.
func (r *Registry) Switch(ctx context.Context, name string) (ModelInfo, error) {
	r.mu.Lock()
	info, ok := r.find(name)
	if !ok {
		r.mu.Unlock()
		return ModelInfo{}, ErrUnknownModel
	}
	r.active = name
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.Set(ctx, storage.DocActiveModel, activeModelDoc{Name: name}); err != nil {
			return info, fmt.Errorf("failed to persist active model: %w", err)
		}
	}
	return info, nil
}

// ListText renders the model list, marking the active model with ★.
func (r *Registry) ListText() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("🤖 可用模型\n━━━━━━━━━━━━━━━\n")
	for _, m := range r.models {
		marker := " "
		if m.Name == r.active {
			marker = "★"
		}
		fmt.Fprintf(&sb, "%s %s %s: %s (%dms)\n", marker, m.Status, m.Name, m.Model, m.LatencyMS)
	}
	sb.WriteString("━━━━━━━━━━━━━━━")
	return sb.String()
}

// InfoText describes the active model.
func (r *Registry) InfoText() string {
	m, ok := r.Active()
	if !ok {
		return "❌ 沒有可用的模型"
	}
	return fmt.Sprintf("📍 當前模型: %s\n🔹 %s\n🔹 延遲: %dms", m.Name, m.Model, m.LatencyMS)
}

// Complete routes req to the active model.
func (r *Registry) Complete(ctx context.Context, req Request) (Response, error) {
	r.mu.RLock()
	name := r.active
	r.mu.RUnlock()
	return r.CompleteWith(ctx, name, req)
}

// CompleteWith routes req to the named model.
func (r *Registry) CompleteWith(ctx context.Context, name string, req Request) (Response, error) {
	r.mu.RLock()
	c, ok := r.completers[name]
	info, _ := r.find(name)
	r.mu.RUnlock()

	if !ok {
		return Response{}, ErrUnknownModel
	}
	if req.Model == "" {
		req.Model = info.Model
	}
	return c.Complete(ctx, req)
}
