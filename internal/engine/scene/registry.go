// Package scene tracks the models that are drawn every frame.
package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/model"
)

// ID identifies a registered model. IDs are never reused.
type ID uint64

// Registry is the table of live models. It does not own them: removing a
// model does not dispose its buffers.
type Registry struct {
	next   ID
	models map[ID]*model.Model
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[ID]*model.Model)}
}

// Add registers m and returns its id.
func (r *Registry) Add(m *model.Model) ID {
	r.next++
	r.models[r.next] = m
	return r.next
}

// Remove deregisters a model. It reports whether the id was present.
func (r *Registry) Remove(id ID) bool {
	if _, ok := r.models[id]; !ok {
		return false
	}
	delete(r.models, id)
	return true
}

// Get returns the model registered under id.
func (r *Registry) Get(id ID) (*model.Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// IDs returns registered ids in ascending order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DrawAll draws every model in registration order with the bound program.
// A model that fails to draw is skipped; all failures are returned joined.
func (r *Registry) DrawAll(b gpu.Backend, p *gpu.Program) error {
	var errs []error
	for _, id := range r.IDs() {
		if err := r.models[id].Draw(b, p); err != nil {
			errs = append(errs, fmt.Errorf("draw object %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
