package completion

import (
	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// Entry is one suggestion in the catalog.
type Entry struct {
	Label         string `yaml:"label"`
	Detail        string `yaml:"detail"`
	Documentation string `yaml:"documentation"`
}

// Catalog lists the static part of the shell API.
type Catalog struct {
	DatabaseMethods          []Entry `yaml:"database_methods"`
	CollectionMethods        []Entry `yaml:"collection_methods"`
	FindCursorMethods        []Entry `yaml:"find_cursor_methods"`
	AggregationCursorMethods []Entry `yaml:"aggregation_cursor_methods"`
	Operators                []Entry `yaml:"operators"`
}

// DefaultCatalog parses the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(builtinCatalog)
}

// ParseCatalog decodes and validates a catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &CatalogError{Message: "invalid YAML", Err: err}
	}

	sections := []struct {
		name    string
		entries []Entry
	}{
		{"database_methods", c.DatabaseMethods},
		{"collection_methods", c.CollectionMethods},
		{"find_cursor_methods", c.FindCursorMethods},
		{"aggregation_cursor_methods", c.AggregationCursorMethods},
		{"operators", c.Operators},
	}
	for _, s := range sections {
		seen := make(map[string]bool, len(s.entries))
		for _, e := range s.entries {
			if e.Label == "" {
				return nil, &CatalogError{Section: s.name, Message: "entry without label"}
			}
			if seen[e.Label] {
				return nil, &CatalogError{Section: s.name, Label: e.Label, Message: "duplicate label"}
			}
			seen[e.Label] = true
		}
	}

	return &c, nil
}

func items(entries []Entry, kind protocol.CompletionItemKind) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.CompletionItem{
			Label:         e.Label,
			Kind:          kind,
			Detail:        e.Detail,
			Documentation: e.Documentation,
		})
	}
	return out
}
