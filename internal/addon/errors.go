package addon

import (
	"fmt"
)

// ManifestNotFoundError means an add-on directory has no readable manifest.yaml.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("add-on manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError wraps the YAML decoding failure of a manifest.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("add-on manifest %s is not valid YAML: %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError reports a manifest that decodes but cannot
// describe a completion add-on. Field is empty when the problem is not tied
// to one key.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("add-on manifest %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("add-on manifest %s: %s: %s", e.Path, e.Field, e.Message)
}

// WasmNotFoundError means the module named by a manifest's wasm key is missing.
type WasmNotFoundError struct {
	ManifestPath string
	WasmFile     string
}

func (e *WasmNotFoundError) Error() string {
	return fmt.Sprintf("add-on module %s named in %s does not exist", e.WasmFile, e.ManifestPath)
}

// AddonLoadError wraps a failure to compile or instantiate an add-on module.
type AddonLoadError struct {
	AddonName string
	Err       error
}

func (e *AddonLoadError) Error() string {
	return fmt.Sprintf("load add-on %s: %v", e.AddonName, e.Err)
}

func (e *AddonLoadError) Unwrap() error {
	return e.Err
}

type AddonNotFoundError struct {
	AddonName string
}

func (e *AddonNotFoundError) Error() string {
	return fmt.Sprintf("no add-on named %s", e.AddonName)
}

// AddonAlreadyRegisteredError is returned when two manifests share a name.
type AddonAlreadyRegisteredError struct {
	AddonName string
}

func (e *AddonAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("add-on %s is registered twice", e.AddonName)
}

// NoAddonsFoundError is returned by discovery when none of the add-on paths
// holds a manifest. The manager treats it as an empty set.
type NoAddonsFoundError struct {
	Paths []string
}

func (e *NoAddonsFoundError) Error() string {
	return fmt.Sprintf("no completion add-ons under %v", e.Paths)
}

// AddonCallError wraps a failed completion request to an add-on.
type AddonCallError struct {
	AddonName string
	Err       error
}

func (e *AddonCallError) Error() string {
	return fmt.Sprintf("add-on %s: complete: %v", e.AddonName, e.Err)
}

func (e *AddonCallError) Unwrap() error {
	return e.Err
}
