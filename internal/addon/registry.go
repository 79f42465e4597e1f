package addon

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry indexes loaded add-ons by name and by capability.
type Registry struct {
	sync.RWMutex
	addons       map[string]*Addon
	byCapability map[string][]*Addon
	logger       *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		addons:       make(map[string]*Addon),
		byCapability: make(map[string][]*Addon),
		logger:       logger.With(zap.String("component", "addon-registry")),
	}
}

// Register adds addon. Names must be unique.
func (r *Registry) Register(addon *Addon) error {
	r.Lock()
	defer r.Unlock()

	name := addon.Manifest.Name
	if _, exists := r.addons[name]; exists {
		return &AddonAlreadyRegisteredError{AddonName: name}
	}

	r.addons[name] = addon
	for _, c := range addon.Manifest.Capabilities {
		r.byCapability[c] = append(r.byCapability[c], addon)
	}

	r.logger.Info("Add-on registered",
		zap.String("name", name),
		zap.Strings("capabilities", addon.Manifest.Capabilities),
	)

	return nil
}

func (r *Registry) Get(name string) (*Addon, bool) {
	r.RLock()
	defer r.RUnlock()

	addon, ok := r.addons[name]
	return addon, ok
}

// WithCapability returns the add-ons declaring capability, in registration order.
func (r *Registry) WithCapability(capability string) []*Addon {
	r.RLock()
	defer r.RUnlock()

	addons := r.byCapability[capability]
	result := make([]*Addon, len(addons))
	copy(result, addons)
	return result
}

// List returns all add-ons sorted by name.
func (r *Registry) List() []*Addon {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Addon, 0, len(r.addons))
	for _, addon := range r.addons {
		result = append(result, addon)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Manifest.Name < result[j].Manifest.Name
	})
	return result
}

// Unregister removes an add-on. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	addon, ok := r.addons[name]
	if !ok {
		return
	}

	for _, c := range addon.Manifest.Capabilities {
		kept := r.byCapability[c][:0]
		for _, a := range r.byCapability[c] {
			if a.Manifest.Name != name {
				kept = append(kept, a)
			}
		}
		r.byCapability[c] = kept
	}
	delete(r.addons, name)

	r.logger.Info("Add-on unregistered", zap.String("name", name))
}

func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.addons)
}
