package wasm

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// HostModuleName is the import module add-ons link against.
const HostModuleName = "host"

// Log levels accepted by log_message.
const (
	LogLevelDebug uint32 = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// HostFunctionsImpl implements the functions exported to guests.
type HostFunctionsImpl struct {
	logger *zap.Logger
}

// NewHostFunctions creates a new host functions implementation.
func NewHostFunctions(logger *zap.Logger) *HostFunctionsImpl {
	return &HostFunctionsImpl{
		logger: logger.With(zap.String("component", "wasm-host")),
	}
}

// instantiate registers the host module in r. Only the first call does work.
func (h *HostFunctionsImpl) instantiate(ctx context.Context, r *Runtime) error {
	r.hostOnce.Do(func() {
		_, err := r.runtime.NewHostModuleBuilder(HostModuleName).
			NewFunctionBuilder().
			WithFunc(h.logMessage).
			WithParameterNames("level", "ptr", "length").
			Export("log_message").
			Instantiate(ctx)
		if err != nil {
			r.hostErr = &HostFunctionError{FunctionName: "log_message", Err: err}
		}
	})
	return r.hostErr
}

// logMessage lets a guest write to the server log.
// Signature: log_message(level, ptr, length)
func (h *HostFunctionsImpl) logMessage(_ context.Context, mod api.Module, level, ptr, length uint32) {
	msg, ok := mod.Memory().Read(ptr, length)
	if !ok {
		h.logger.Error("Failed to read log message from Wasm memory",
			zap.String("module", mod.Name()),
			zap.Uint32("ptr", ptr),
			zap.Uint32("length", length),
		)
		return
	}

	logger := h.logger.With(zap.String("module", mod.Name()))
	switch level {
	case LogLevelDebug:
		logger.Debug(string(msg))
	case LogLevelWarn:
		logger.Warn(string(msg))
	case LogLevelError:
		logger.Error(string(msg))
	default:
		logger.Info(string(msg))
	}
}
