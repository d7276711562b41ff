package handlers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"collapsible/internal/panel"
)

// PanelFactory builds a panel with the process-wide dependencies.
type PanelFactory func(ctx context.Context, opts panel.Options) *panel.Panel

// PanelRegistry - live panels of the preview server, keyed by panel id
type PanelRegistry struct {
	ctx     context.Context
	factory PanelFactory

	mu     sync.RWMutex
	panels map[string]*panel.Panel
}

func NewPanelRegistry(ctx context.Context, factory PanelFactory) *PanelRegistry {
	return &PanelRegistry{
		ctx:     ctx,
		factory: factory,
		panels:  make(map[string]*panel.Panel),
	}
}

// Create builds and registers a panel. An explicit id must be unused.
func (r *PanelRegistry) Create(opts panel.Options) (*panel.Panel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opts.ID != "" {
		if _, exists := r.panels[opts.ID]; exists {
			return nil, fmt.Errorf("panel %s already exists", opts.ID)
		}
	}
	p := r.factory(r.ctx, opts)
	r.panels[p.ID()] = p
	return p, nil
}

func (r *PanelRegistry) Get(id string) (*panel.Panel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.panels[id]
	return p, ok
}

// Remove closes and forgets a panel.
func (r *PanelRegistry) Remove(id string) bool {
	r.mu.Lock()
	p, ok := r.panels[id]
	delete(r.panels, id)
	r.mu.Unlock()
	if ok {
		p.Close()
	}
	return ok
}

// IDs returns the registered ids in sorted order.
func (r *PanelRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.panels))
	for id := range r.panels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *PanelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.panels)
}

// CloseAll closes every panel.
func (r *PanelRegistry) CloseAll() {
	r.mu.Lock()
	panels := r.panels
	r.panels = make(map[string]*panel.Panel)
	r.mu.Unlock()
	for _, p := range panels {
		p.Close()
	}
}
