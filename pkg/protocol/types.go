package protocol

// Core types shared by the playground language server packages.
// They are transport-neutral; internal/lsp converts them to LSP wire types.

// Position represents a zero-based position in a text document.
// Character counts UTF-16 code units, as editors report them.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range represents a range in a text document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// CompletionItemKind represents the kind of completion item
type CompletionItemKind int

const (
	CompletionItemKindKeyword CompletionItemKind = iota + 1
	CompletionItemKindMethod
	CompletionItemKindDatabase
	CompletionItemKindCollection
	CompletionItemKindField
	CompletionItemKindOperator
	CompletionItemKindSnippet
)

func (k CompletionItemKind) String() string {
	switch k {
	case CompletionItemKindKeyword:
		return "keyword"
	case CompletionItemKindMethod:
		return "method"
	case CompletionItemKindDatabase:
		return "database"
	case CompletionItemKindCollection:
		return "collection"
	case CompletionItemKindField:
		return "field"
	case CompletionItemKindOperator:
		return "operator"
	case CompletionItemKindSnippet:
		return "snippet"
	default:
		return "unknown"
	}
}

// CompletionItem represents a completion item
type CompletionItem struct {
	Label         string             `json:"label"`
	Kind          CompletionItemKind `json:"kind"`
	Detail        string             `json:"detail,omitempty"`
	Documentation string             `json:"documentation,omitempty"`
	InsertText    string             `json:"insertText,omitempty"`
	SortText      string             `json:"sortText,omitempty"`
	FilterText    string             `json:"filterText,omitempty"`
}
