package addon

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/analyzer"
	"github.com/woxQAQ/mongodb-playground-lsp/internal/wasm"
)

func newTestManager(t *testing.T, paths []string) (*Manager, *wasm.Runtime) {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	runtime, err := wasm.NewRuntime(ctx, logger, wasm.DefaultRuntimeConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	t.Cleanup(func() { runtime.Close(ctx) })

	return NewManager(paths, runtime, wasm.NewHostFunctions(logger), logger), runtime
}

func TestManager_LoadAll(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t, []string{filepath.Join("testdata", "addons")})

	if manager.IsLoaded() {
		t.Error("Manager should not be loaded initially")
	}

	if err := manager.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll() failed: %v", err)
	}

	if !manager.IsLoaded() {
		t.Error("Manager should be loaded after LoadAll()")
	}
	if manager.Registry().Count() != 1 {
		t.Errorf("expected 1 registered add-on, got %d", manager.Registry().Count())
	}

	if err := manager.LoadAll(ctx); err == nil {
		t.Error("second LoadAll() should fail")
	}

	if _, err := manager.GetAddon("sample-completion"); err != nil {
		t.Errorf("GetAddon() failed: %v", err)
	}
}

func TestManager_LoadAll_NoAddons(t *testing.T) {
	manager, _ := newTestManager(t, []string{t.TempDir()})

	if err := manager.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll() without add-ons should succeed: %v", err)
	}

	items, err := manager.Contribute(context.Background(), analyzer.CompletionState{IsShellMethod: true})
	if err != nil || len(items) != 0 {
		t.Errorf("Contribute() without add-ons = %v, %v", items, err)
	}
}

func TestManager_GetAddon_NotFound(t *testing.T) {
	manager, _ := newTestManager(t, nil)

	_, err := manager.GetAddon("nonexistent")
	if _, ok := err.(*AddonNotFoundError); !ok {
		t.Errorf("expected AddonNotFoundError, got %T", err)
	}
}

func TestManager_Contribute(t *testing.T) {
	ctx := context.Background()
	manager, runtime := newTestManager(t, []string{filepath.Join("testdata", "addons")})

	if err := manager.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}

	state := analyzer.CompletionState{CollectionName: "accounts", IsShellMethod: true}
	for i := 0; i < 3; i++ {
		items, err := manager.Contribute(ctx, state)
		if err != nil {
			t.Fatalf("Contribute() failed: %v", err)
		}
		if len(items) != 1 || items[0].Label != "wasmItem" {
			t.Fatalf("Contribute() = %+v", items)
		}
	}

	// The instance is reused between calls.
	if runtime.InstanceCount() != 1 {
		t.Errorf("expected 1 live instance, got %d", runtime.InstanceCount())
	}
}

func TestManager_ContributeReportsFailures(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t, nil)

	// Registered without a compiled module behind it.
	manager.Registry().Register(&Addon{
		Manifest: &Manifest{Name: "ghost", Capabilities: []string{CapabilityCompletion}},
		Compiled: &wasm.CompiledModule{Name: "ghost"},
		LoadedAt: time.Now(),
	})

	items, err := manager.Contribute(ctx, analyzer.CompletionState{IsShellMethod: true})
	if len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}

	var callErr *AddonCallError
	if !errors.As(err, &callErr) || callErr.AddonName != "ghost" {
		t.Fatalf("expected AddonCallError for ghost, got %v", err)
	}

	var notFound *wasm.ModuleNotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("expected wrapped ModuleNotFoundError, got %v", err)
	}
}

func TestManager_Shutdown(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	runtime, err := wasm.NewRuntime(ctx, logger, wasm.DefaultRuntimeConfig())
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	manager := NewManager([]string{filepath.Join("testdata", "addons")}, runtime, wasm.NewHostFunctions(logger), logger)
	if err := manager.LoadAll(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := manager.Contribute(ctx, analyzer.CompletionState{IsShellMethod: true}); err != nil {
		t.Fatal(err)
	}

	if err := manager.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}

	if !runtime.IsClosed() {
		t.Error("Runtime should be closed after shutdown")
	}
	if runtime.InstanceCount() != 0 {
		t.Errorf("expected no live instances, got %d", runtime.InstanceCount())
	}
}
