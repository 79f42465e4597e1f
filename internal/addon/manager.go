package addon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/analyzer"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/wasm"
	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// Manager owns the add-on lifecycle and answers completion requests by
// asking every completion-capable add-on.
type Manager struct {
	paths       []string
	runtime     *wasm.Runtime
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	logger      *zap.Logger

	mu        sync.RWMutex
	loaded    bool
	instances map[string]*wasm.Instance
}

// NewManager creates a manager loading add-ons from paths.
func NewManager(
	paths []string,
	runtime *wasm.Runtime,
	hostFuncs *wasm.HostFunctionsImpl,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		paths:       paths,
		runtime:     runtime,
		loader:      NewLoader(runtime, logger),
		registry:    NewRegistry(logger),
		instanceMgr: wasm.NewInstanceManager(runtime, hostFuncs, logger),
		logger:      logger.With(zap.String("component", "addon-manager")),
		instances:   make(map[string]*wasm.Instance),
	}
}

// LoadAll discovers and registers add-ons. Finding none is not an error.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("add-ons already loaded")
	}

	m.logger.Info("Loading add-ons", zap.Strings("paths", m.paths))

	addons, err := m.loader.DiscoverAddons(ctx, m.paths)
	if err != nil {
		var none *NoAddonsFoundError
		if errors.As(err, &none) {
			m.logger.Warn("No add-ons found in configured paths", zap.Strings("paths", m.paths))
			m.loaded = true
			return nil
		}
		return err
	}

	for _, addon := range addons {
		if err := m.registry.Register(addon); err != nil {
			m.logger.Error("Failed to register add-on",
				zap.String("name", addon.Manifest.Name),
				zap.Error(err),
			)
		}
	}

	m.loaded = true
	m.logger.Info("Add-ons loaded successfully", zap.Int("count", m.registry.Count()))

	return nil
}

// GetAddon retrieves an add-on by name.
func (m *Manager) GetAddon(name string) (*Addon, error) {
	addon, ok := m.registry.Get(name)
	if !ok {
		return nil, &AddonNotFoundError{AddonName: name}
	}
	return addon, nil
}

// contributeRequest is the JSON document passed to an add-on's complete export.
type contributeRequest struct {
	State analyzer.CompletionState `json:"state"`
}

// Contribute asks each completion add-on for items. A failing add-on is
// reported in the returned error without discarding the others' items.
func (m *Manager) Contribute(ctx context.Context, state analyzer.CompletionState) ([]protocol.CompletionItem, error) {
	addons := m.registry.WithCapability(CapabilityCompletion)
	if len(addons) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(contributeRequest{State: state})
	if err != nil {
		return nil, err
	}

	var (
		items []protocol.CompletionItem
		errs  []error
	)
	for _, addon := range addons {
		got, err := m.complete(ctx, addon, payload)
		if err != nil {
			m.logger.Warn("Add-on completion failed",
				zap.String("addon", addon.Name()),
				zap.Error(err),
			)
			errs = append(errs, &AddonCallError{AddonName: addon.Name(), Err: err})
			continue
		}
		items = append(items, got...)
	}

	return items, errors.Join(errs...)
}

func (m *Manager) complete(ctx context.Context, addon *Addon, payload []byte) ([]protocol.CompletionItem, error) {
	instance, err := m.instanceFor(ctx, addon)
	if err != nil {
		return nil, err
	}

	out, err := instance.Complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	var items []protocol.CompletionItem
	if err := json.Unmarshal(out, &items); err != nil {
		return nil, fmt.Errorf("decode completion items: %w", err)
	}
	return items, nil
}

// instanceFor returns the cached instance of addon, replacing one the
// runtime closed after a timeout.
func (m *Manager) instanceFor(ctx context.Context, addon *Addon) (*wasm.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if inst, ok := m.instances[addon.Name()]; ok {
		if !inst.Closed() {
			return inst, nil
		}
		inst.Close(ctx)
		delete(m.instances, addon.Name())
	}

	inst, err := m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{ModuleName: addon.Compiled.Name})
	if err != nil {
		return nil, err
	}
	m.instances[addon.Name()] = inst
	return inst, nil
}

// Shutdown closes cached instances and the runtime.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down add-on manager")

	m.mu.Lock()
	for name, inst := range m.instances {
		if err := inst.Close(ctx); err != nil {
			m.logger.Warn("Failed to close add-on instance", zap.String("addon", name), zap.Error(err))
		}
	}
	m.instances = make(map[string]*wasm.Instance)
	m.mu.Unlock()

	if err := m.runtime.Close(ctx); err != nil {
		m.logger.Error("Failed to shutdown runtime", zap.Error(err))
		return err
	}

	m.logger.Info("Add-on manager shutdown complete")
	return nil
}

// Registry returns the add-on registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded returns whether add-ons have been loaded.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
