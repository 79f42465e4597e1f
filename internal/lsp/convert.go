package lsp

import (
	lsproto "github.com/tliron/glsp/protocol_3_16"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/codelens"
	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

func toPosition(p lsproto.Position) protocol.Position {
	return protocol.Position{Line: int(p.Line), Character: int(p.Character)}
}

func fromPosition(p protocol.Position) lsproto.Position {
	return lsproto.Position{Line: lsproto.UInteger(p.Line), Character: lsproto.UInteger(p.Character)}
}

func toRange(r lsproto.Range) protocol.Range {
	return protocol.Range{Start: toPosition(r.Start), End: toPosition(r.End)}
}

func fromRange(r protocol.Range) lsproto.Range {
	return lsproto.Range{Start: fromPosition(r.Start), End: fromPosition(r.End)}
}

// completionKind maps item kinds to the closest LSP kind.
func completionKind(kind protocol.CompletionItemKind) *lsproto.CompletionItemKind {
	var k lsproto.CompletionItemKind
	switch kind {
	case protocol.CompletionItemKindKeyword:
		k = lsproto.CompletionItemKindKeyword
	case protocol.CompletionItemKindMethod:
		k = lsproto.CompletionItemKindMethod
	case protocol.CompletionItemKindDatabase:
		k = lsproto.CompletionItemKindModule
	case protocol.CompletionItemKindCollection:
		k = lsproto.CompletionItemKindFolder
	case protocol.CompletionItemKindField:
		k = lsproto.CompletionItemKindField
	case protocol.CompletionItemKindOperator:
		k = lsproto.CompletionItemKindOperator
	case protocol.CompletionItemKindSnippet:
		k = lsproto.CompletionItemKindSnippet
	default:
		k = lsproto.CompletionItemKindText
	}
	return &k
}

func completionItems(items []protocol.CompletionItem) []lsproto.CompletionItem {
	out := make([]lsproto.CompletionItem, len(items))
	for i, item := range items {
		out[i] = lsproto.CompletionItem{
			Label:      item.Label,
			Kind:       completionKind(item.Kind),
			Detail:     stringPtrOrNil(item.Detail),
			InsertText: stringPtrOrNil(item.InsertText),
			SortText:   stringPtrOrNil(item.SortText),
			FilterText: stringPtrOrNil(item.FilterText),
		}
		if item.Documentation != "" {
			out[i].Documentation = lsproto.MarkupContent{
				Kind:  lsproto.MarkupKindMarkdown,
				Value: item.Documentation,
			}
		}
	}
	return out
}

func codeLenses(lenses []codelens.Lens) []lsproto.CodeLens {
	out := make([]lsproto.CodeLens, 0, len(lenses))
	for _, l := range lenses {
		lens := lsproto.CodeLens{Range: fromRange(l.Range)}
		if l.Command != nil {
			lens.Command = &lsproto.Command{
				Title:     l.Command.Title,
				Command:   l.Command.Command,
				Arguments: l.Command.Arguments,
			}
		}
		out = append(out, lens)
	}
	return out
}

func stringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
