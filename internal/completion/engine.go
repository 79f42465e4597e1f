// Package completion turns a classified cursor context into completion items.
package completion

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/woxQAQ/mongodb-playground-lsp/internal/analyzer"
	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

// SchemaProvider answers questions about the connected deployment.
type SchemaProvider interface {
	// DefaultDatabase is the database used when the playground has no use() call.
	DefaultDatabase() string
	DatabaseNames(ctx context.Context) ([]string, error)
	CollectionNames(ctx context.Context, database string) ([]string, error)
	FieldNames(ctx context.Context, database, collection string) ([]string, error)
}

// Contributor supplies extra items for a context, e.g. a Wasm add-on.
type Contributor interface {
	Contribute(ctx context.Context, state analyzer.CompletionState) ([]protocol.CompletionItem, error)
}

// Engine produces completion items for a playground document.
type Engine struct {
	catalog      *Catalog
	schema       SchemaProvider
	contributors []Contributor
	logger       *zap.Logger
}

// NewEngine creates an engine. schema may be nil when no deployment is known.
func NewEngine(catalog *Catalog, schema SchemaProvider, logger *zap.Logger, contributors ...Contributor) *Engine {
	return &Engine{
		catalog:      catalog,
		schema:       schema,
		contributors: contributors,
		logger:       logger.With(zap.String("component", "completion")),
	}
}

// Complete classifies the cursor context in text and returns the matching
// items. Provider and contributor failures are logged, not returned; the
// only error is a done context.
func (e *Engine) Complete(ctx context.Context, text string, pos protocol.Position) ([]protocol.CompletionItem, error) {
	state := analyzer.Classify(text, pos)
	e.logger.Debug("Classified cursor context",
		zap.Int("line", pos.Line),
		zap.Int("character", pos.Character),
		zap.Any("state", state),
	)
	return e.CompleteState(ctx, state)
}

// CompleteState returns the items for an already classified context.
func (e *Engine) CompleteState(ctx context.Context, state analyzer.CompletionState) ([]protocol.CompletionItem, error) {
	if !hasContext(state) {
		return nil, nil
	}

	database := state.DatabaseName
	if database == "" && e.schema != nil {
		database = e.schema.DefaultDatabase()
	}
	collection := state.CollectionName
	if strings.Contains(collection, analyzer.Placeholder) {
		collection = ""
	}

	var result []protocol.CompletionItem
	switch {
	case state.IsUseCallExpression:
		result = e.names(ctx, "databases", protocol.CompletionItemKindDatabase, func() ([]string, error) {
			return e.schema.DatabaseNames(ctx)
		})

	case state.IsObjectKey:
		if database != "" && collection != "" {
			result = e.names(ctx, "fields", protocol.CompletionItemKindField, func() ([]string, error) {
				return e.schema.FieldNames(ctx, database, collection)
			})
		}
		result = append(result, items(e.catalog.Operators, protocol.CompletionItemKindOperator)...)

	case state.IsShellMethod:
		result = items(e.catalog.CollectionMethods, protocol.CompletionItemKindMethod)

	case state.IsAggregationCursor:
		result = items(e.catalog.AggregationCursorMethods, protocol.CompletionItemKindMethod)

	case state.IsFindCursor:
		result = items(e.catalog.FindCursorMethods, protocol.CompletionItemKindMethod)

	case state.IsDbCallExpression && state.IsCollectionName:
		if database != "" {
			result = e.names(ctx, "collections", protocol.CompletionItemKindCollection, func() ([]string, error) {
				return e.schema.CollectionNames(ctx, database)
			})
		}
		result = append(result, items(e.catalog.DatabaseMethods, protocol.CompletionItemKindMethod)...)
	}

	for _, c := range e.contributors {
		extra, err := c.Contribute(ctx, state)
		if err != nil {
			e.logger.Warn("Completion contributor failed", zap.Error(err))
		}
		result = append(result, extra...)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return finalize(result), nil
}

// names fetches names from the schema provider and converts them to items.
func (e *Engine) names(ctx context.Context, what string, kind protocol.CompletionItemKind, fetch func() ([]string, error)) []protocol.CompletionItem {
	if e.schema == nil {
		return nil
	}

	names, err := fetch()
	if err != nil {
		e.logger.Warn("Schema lookup failed", zap.String("lookup", what), zap.Error(err))
		return nil
	}

	out := make([]protocol.CompletionItem, 0, len(names))
	for _, name := range names {
		item := protocol.CompletionItem{Label: name, Kind: kind}
		if kind == protocol.CompletionItemKindField && !isIdentifier(name) {
			item.InsertText = "'" + strings.ReplaceAll(name, "'", `\'`) + "'"
		}
		out = append(out, item)
	}
	return out
}

// finalize drops repeated labels, keeping the first, and pins the order.
func finalize(in []protocol.CompletionItem) []protocol.CompletionItem {
	seen := make(map[string]bool, len(in))
	out := make([]protocol.CompletionItem, 0, len(in))
	for _, item := range in {
		if seen[item.Label] {
			continue
		}
		seen[item.Label] = true
		item.SortText = fmt.Sprintf("%04d", len(out))
		out = append(out, item)
	}
	return out
}

func hasContext(s analyzer.CompletionState) bool {
	return s.IsUseCallExpression || s.IsObjectKey || s.IsShellMethod ||
		s.IsAggregationCursor || s.IsFindCursor ||
		(s.IsDbCallExpression && s.IsCollectionName)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
