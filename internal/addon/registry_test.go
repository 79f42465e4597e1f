package addon

import (
	"testing"

	"go.uber.org/zap"
)

func testAddon(name string, capabilities ...string) *Addon {
	return &Addon{
		Manifest: &Manifest{
			Name:         name,
			Engine:       EngineMongoDB,
			Capabilities: capabilities,
			dir:          "/tmp/" + name,
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if err := registry.Register(testAddon("b", CapabilityCompletion)); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := registry.Register(testAddon("a")); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if registry.Count() != 2 {
		t.Errorf("expected count 2, got %d", registry.Count())
	}

	list := registry.List()
	if len(list) != 2 || list[0].Name() != "a" || list[1].Name() != "b" {
		t.Errorf("List() should be sorted by name, got %v", list)
	}

	addon, ok := registry.Get("b")
	if !ok || addon.Name() != "b" {
		t.Error("Get() should find a registered add-on")
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if err := registry.Register(testAddon("dup")); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	err := registry.Register(testAddon("dup"))
	if _, ok := err.(*AddonAlreadyRegisteredError); !ok {
		t.Errorf("expected AddonAlreadyRegisteredError, got %T", err)
	}
}

func TestRegistry_WithCapability(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(testAddon("first", CapabilityCompletion))
	registry.Register(testAddon("none"))
	registry.Register(testAddon("second", CapabilityCompletion))

	got := registry.WithCapability(CapabilityCompletion)
	if len(got) != 2 || got[0].Name() != "first" || got[1].Name() != "second" {
		t.Errorf("WithCapability() = %v, want [first second]", got)
	}

	if got := registry.WithCapability("unknown"); len(got) != 0 {
		t.Errorf("expected no add-ons, got %d", len(got))
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	registry.Register(testAddon("a", CapabilityCompletion))
	registry.Register(testAddon("b", CapabilityCompletion))

	registry.Unregister("a")
	registry.Unregister("missing")

	if registry.Count() != 1 {
		t.Errorf("expected count 1, got %d", registry.Count())
	}
	if _, ok := registry.Get("a"); ok {
		t.Error("unregistered add-on should not be found")
	}

	got := registry.WithCapability(CapabilityCompletion)
	if len(got) != 1 || got[0].Name() != "b" {
		t.Errorf("capability index not updated: %v", got)
	}
}

func TestAddonAccessors(t *testing.T) {
	addon := &Addon{Manifest: &Manifest{
		Name:              "x",
		Version:           "2.1.0",
		Engine:            EngineMongoDB,
		SupportedVersions: []string{"6.0", "7.0"},
		Capabilities:      []string{CapabilityCompletion},
	}}

	if addon.Version() != "2.1.0" || addon.Engine() != EngineMongoDB {
		t.Errorf("unexpected accessors: %s %s", addon.Version(), addon.Engine())
	}
	if !addon.SupportsVersion("7.0") || addon.SupportsVersion("5.0") {
		t.Error("SupportsVersion() mismatch")
	}
	if !addon.HasCapability(CapabilityCompletion) || addon.HasCapability("diagnostics") {
		t.Error("HasCapability() mismatch")
	}
	if len(addon.Capabilities()) != 1 {
		t.Errorf("expected 1 capability, got %d", len(addon.Capabilities()))
	}
}
