package addon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/wasm"
)

// Loader reads add-on directories and compiles their modules.
type Loader struct {
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new add-on loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "addon-loader")),
	}
}

// LoadAddon loads the add-on in dir. The module is cached under the
// add-on name so it can be instantiated by name later.
func (l *Loader) LoadAddon(ctx context.Context, dir string) (*Addon, error) {
	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading add-on",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
		zap.String("dir", dir),
	)

	compiled, err := l.moduleLoader.LoadModuleFromFile(ctx, manifest.Name, manifest.WasmPath())
	if err != nil {
		return nil, &AddonLoadError{
			AddonName: manifest.Name,
			Err:       err,
		}
	}

	addon := &Addon{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}

	l.logger.Info("Add-on loaded successfully",
		zap.String("name", manifest.Name),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return addon, nil
}

// DiscoverAddons loads every subdirectory of paths as an add-on. Broken
// add-ons are logged and skipped; NoAddonsFoundError is returned when
// nothing loads.
func (l *Loader) DiscoverAddons(ctx context.Context, paths []string) ([]*Addon, error) {
	var addons []*Addon
	failed := 0

	for _, basePath := range paths {
		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Add-on path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			addonDir := filepath.Join(basePath, entry.Name())
			addon, err := l.LoadAddon(ctx, addonDir)
			if err != nil {
				l.logger.Error("Failed to load add-on",
					zap.String("dir", addonDir),
					zap.Error(err),
				)
				failed++
				continue
			}

			addons = append(addons, addon)
		}
	}

	if len(addons) == 0 {
		return nil, &NoAddonsFoundError{Paths: paths}
	}

	if failed > 0 {
		l.logger.Warn("Some add-ons failed to load",
			zap.Int("loaded", len(addons)),
			zap.Int("failed", failed),
		)
	}

	return addons, nil
}
