package addon

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the file name looked up in every add-on directory.
const ManifestFile = "manifest.yaml"

// EngineMongoDB is the only engine add-ons may target.
const EngineMongoDB = "MongoDB"

// Capabilities an add-on may declare.
const (
	CapabilityCompletion = "completion"
)

var validCapabilities = []string{CapabilityCompletion}

// Manifest is the parsed manifest.yaml of an add-on.
type Manifest struct {
	Name              string     `yaml:"name"`
	Version           string     `yaml:"version"`
	Engine            string     `yaml:"engine"`
	SupportedVersions []string   `yaml:"supported_versions"`
	Wasm              WasmConfig `yaml:"wasm"`
	Capabilities      []string   `yaml:"capabilities"`
	Author            string     `yaml:"author"`
	License           string     `yaml:"license"`

	dir string
}

// WasmConfig locates the add-on's module.
type WasmConfig struct {
	File string `yaml:"file"`
	Size int    `yaml:"size"` // KB, informational
}

// ParseManifest reads, parses and validates dir/manifest.yaml.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks required fields, the engine, capabilities, and that the
// module file exists.
func (m *Manifest) Validate() error {
	required := []struct {
		field string
		empty bool
	}{
		{"name", m.Name == ""},
		{"version", m.Version == ""},
		{"engine", m.Engine == ""},
		{"supported_versions", len(m.SupportedVersions) == 0},
		{"wasm.file", m.Wasm.File == ""},
		{"capabilities", len(m.Capabilities) == 0},
	}
	for _, r := range required {
		if r.empty {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   r.field,
				Message: r.field + " is required",
			}
		}
	}

	if m.Engine != EngineMongoDB {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "engine",
			Message: fmt.Sprintf("unsupported engine: %s (must be %s)", m.Engine, EngineMongoDB),
		}
	}

	for _, c := range m.Capabilities {
		if !slices.Contains(validCapabilities, c) {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "capabilities",
				Message: fmt.Sprintf("unknown capability: %s (must be one of: %s)", c, strings.Join(validCapabilities, ", ")),
			}
		}
	}

	if filepath.IsAbs(m.Wasm.File) || strings.HasPrefix(filepath.Clean(m.Wasm.File), "..") {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "wasm.file",
			Message: "wasm.file must be relative to the add-on directory",
		}
	}

	if _, err := os.Stat(m.WasmPath()); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}

	return nil
}

func (m *Manifest) Path() string {
	return filepath.Join(m.dir, ManifestFile)
}

// WasmPath resolves wasm.file against the manifest directory.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

func (m *Manifest) Dir() string {
	return m.dir
}
