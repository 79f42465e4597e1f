package wasm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// Guest exports every add-on must provide.
const (
	ExportMemory   = "memory"
	ExportAlloc    = "alloc"
	ExportComplete = "complete"
)

// InstanceManager creates instances of compiled modules.
type InstanceManager struct {
	runtime   *Runtime
	logger    *zap.Logger
	hostFuncs *HostFunctionsImpl
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, hostFuncs *HostFunctionsImpl, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime:   runtime,
		hostFuncs: hostFuncs,
		logger:    logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Compiled module to instantiate.
	ModuleName string

	// Instance ID. A UUID is generated when empty.
	InstanceID string
}

// Instance is an instantiated add-on module. Calls are serialized because
// a guest's linear memory is not safe for concurrent use.
type Instance struct {
	mu      sync.Mutex
	module  api.Module
	runtime *Runtime
	logger  *zap.Logger

	ID        string
	Name      string
	CreatedAt int64

	exports map[string]api.Function

	closeOnce sync.Once
}

// Instantiate creates a new instance from a compiled module.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	if m.runtime.IsClosed() {
		return nil, &InstantiationError{ModuleName: config.ModuleName, Err: errors.New("runtime is closed")}
	}

	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	if err := m.hostFuncs.instantiate(ctx, m.runtime); err != nil {
		return nil, err
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	if !m.runtime.reserveInstance() {
		return nil, &InstanceLimitError{Limit: m.runtime.config.MaxInstances}
	}

	m.logger.Info("Instantiating Wasm module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// Reactor-style modules run _initialize; command modules are not supported.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions("_initialize")

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		m.runtime.active.Add(-1)
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	if module.ExportedMemory(ExportMemory) == nil {
		module.Close(ctx)
		m.runtime.active.Add(-1)
		return nil, &FunctionNotFoundError{ModuleName: config.ModuleName, FunctionName: ExportMemory}
	}

	exports := cacheExportedFunctions(module)
	for _, name := range []string{ExportAlloc, ExportComplete} {
		if _, ok := exports[name]; !ok {
			module.Close(ctx)
			m.runtime.active.Add(-1)
			return nil, &FunctionNotFoundError{ModuleName: config.ModuleName, FunctionName: name}
		}
	}

	instance := &Instance{
		module:    module,
		runtime:   m.runtime,
		logger:    m.logger.With(zap.String("instance_id", instanceID)),
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		exports:   exports,
	}
	m.runtime.storeInstance(instance)

	m.logger.Info("Module instantiated successfully",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(exports)),
	)

	return instance, nil
}

// Complete hands payload to the guest's complete export and returns the
// bytes it answers with.
//
// complete(ptr, len) returns a pointer to an 8-byte header holding the
// little-endian pointer and length of the result.
func (i *Instance) Complete(ctx context.Context, payload []byte) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.module.IsClosed() {
		return nil, &InstanceClosedError{InstanceID: i.ID}
	}

	timeout := i.runtime.config.ExecutionTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	mem := NewMemory(i.module)
	ptr, length, err := mem.WriteBytes(ctx, payload)
	if err != nil {
		return nil, i.callError(ctx, timeout, err)
	}

	started := time.Now()
	results, err := i.exports[ExportComplete].Call(ctx, uint64(ptr), uint64(length))
	if err != nil {
		return nil, i.callError(ctx, timeout, err)
	}
	if i.runtime.config.DebugEnabled {
		i.logger.Debug("Guest call finished",
			zap.String("function", ExportComplete),
			zap.Int("payload_bytes", len(payload)),
			zap.Duration("duration", time.Since(started)),
		)
	}
	if len(results) != 1 {
		return nil, &MemoryAccessError{Operation: "complete", Err: errors.New("complete must return a pointer")}
	}

	header := uint32(results[0])
	resultPtr, ok := mem.ReadUint32Le(header)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: header, Length: 4, Err: errors.New("out of bounds")}
	}
	resultLen, ok := mem.ReadUint32Le(header + 4)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: header + 4, Length: 4, Err: errors.New("out of bounds")}
	}

	out, ok := mem.ReadBytes(resultPtr, resultLen)
	if !ok {
		return nil, &MemoryAccessError{Operation: "read", Address: resultPtr, Length: resultLen, Err: errors.New("out of bounds")}
	}
	return out, nil
}

func (i *Instance) callError(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && timeout > 0 {
		i.logger.Warn("Guest call timed out", zap.Duration("timeout", timeout))
		return &TimeoutError{Duration: timeout}
	}
	return &CallError{InstanceID: i.ID, FunctionName: ExportComplete, Err: err}
}

// Closed reports whether the instance can no longer be called. Instances
// are closed by the runtime when a call outlives its context.
func (i *Instance) Closed() bool {
	return i.module.IsClosed()
}

// Close closes the instance and releases its slot.
func (i *Instance) Close(ctx context.Context) error {
	var err error
	i.closeOnce.Do(func() {
		err = i.module.Close(ctx)
		i.runtime.releaseInstance(i.ID)
	})
	return err
}

func cacheExportedFunctions(module api.Module) map[string]api.Function {
	exports := make(map[string]api.Function)
	for _, name := range []string{ExportAlloc, ExportComplete} {
		if fn := module.ExportedFunction(name); fn != nil {
			exports[name] = fn
		}
	}
	return exports
}
