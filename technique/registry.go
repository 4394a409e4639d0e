package technique

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds techniques by name. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	techniques map[Name]Technique
}

func NewRegistry() *Registry {
	return &Registry{techniques: make(map[Name]Technique)}
}

// Register adds t, replacing any technique registered under the same name.
func (r *Registry) Register(t Technique) error {
	if t == nil {
		return NewConfigError("technique", "cannot register a nil technique", nil)
	}
	name := t.Metadata().Name
	if !name.Valid() {
		return NewConfigError("name", fmt.Sprintf("unknown technique %q", name), nil)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.techniques[name] = t
	return nil
}

// Get returns the technique registered under name.
func (r *Registry) Get(name Name) (Technique, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.techniques[name]
	return t, ok
}

// Names lists registered technique names in lexical order.
func (r *Registry) Names() []Name {
	r.mu.RLock()
	names := make([]Name, 0, len(r.techniques))
	for n := range r.techniques {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Applicable returns the techniques applicable to octx, highest priority
// first and by name among equal priorities.
func (r *Registry) Applicable(octx *OptimizationContext) []Technique {
	r.mu.RLock()
	var out []Technique
	for _, t := range r.techniques {
		if t.IsApplicable(octx) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i].Metadata(), out[j].Metadata()
		if mi.Priority != mj.Priority {
			return mi.Priority > mj.Priority
		}
		return mi.Name < mj.Name
	})
	return out
}
