package addon

import (
	"slices"
	"time"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/wasm"
)

// Addon is a validated manifest together with its compiled module.
type Addon struct {
	Manifest *Manifest
	Compiled *wasm.CompiledModule
	LoadedAt time.Time
}

func (a *Addon) Name() string {
	return a.Manifest.Name
}

// Engine returns the database engine the add-on targets.
func (a *Addon) Engine() string {
	return a.Manifest.Engine
}

func (a *Addon) Version() string {
	return a.Manifest.Version
}

func (a *Addon) Capabilities() []string {
	return a.Manifest.Capabilities
}

// HasCapability reports whether the manifest declares capability.
func (a *Addon) HasCapability(capability string) bool {
	return slices.Contains(a.Manifest.Capabilities, capability)
}

// SupportsVersion reports whether the add-on lists a MongoDB server version.
func (a *Addon) SupportsVersion(version string) bool {
	return slices.Contains(a.Manifest.SupportedVersions, version)
}
