// Package analyzer classifies the syntactic context around the cursor in a
// MongoDB playground so the completion engine knows what to suggest.
//
// The cursor position is turned into a Placeholder identifier spliced into
// the text, the text is parsed as a JavaScript module, and a fixed set of
// structural predicates is run over every call, member access, expression
// statement and object literal in the tree.
package analyzer

import (
	"strings"

	"github.com/woxQAQ/mongodb-playground-lsp/pkg/protocol"
)

const (
	dbIdentifier  = "db"
	useIdentifier = "use"

	findMethod      = "find"
	aggregateMethod = "aggregate"
)

// CompletionState describes the expression surrounding the cursor.
// Empty names mean the name is not known.
type CompletionState struct {
	DatabaseName        string `json:"databaseName,omitempty"`
	CollectionName      string `json:"collectionName,omitempty"`
	IsObjectKey         bool   `json:"isObjectKey"`
	IsShellMethod       bool   `json:"isShellMethod"`
	IsUseCallExpression bool   `json:"isUseCallExpression"`
	IsDbCallExpression  bool   `json:"isDbCallExpression"`
	IsCollectionName    bool   `json:"isCollectionName"`
	IsAggregationCursor bool   `json:"isAggregationCursor"`
	IsFindCursor        bool   `json:"isFindCursor"`
}

// IsZero reports whether no predicate matched.
func (s CompletionState) IsZero() bool {
	return s == CompletionState{}
}

// Classify returns the completion state for text with the cursor at pos.
// Text that does not parse yields the zero state.
func Classify(text string, pos protocol.Position) CompletionState {
	c := &classifier{pos: pos}

	src, ok := insertPlaceholder(text, pos)
	if !ok {
		return c.state
	}

	prog, err := Parse([]byte(src))
	if err != nil {
		return c.state
	}

	Walk(prog, c.visit)
	return c.state
}

// classifier accumulates the state of a single Classify call.
type classifier struct {
	pos   protocol.Position
	state CompletionState
}

func (c *classifier) visit(n Node) {
	switch n := n.(type) {
	case *CallExpr:
		c.visitCall(n)
	case *MemberExpr:
		c.visitMember(n)
	case *ExprStatement:
		if isDbStatement(n) {
			c.state.IsDbCallExpression = true
		}
	case *ObjectExpr:
		if isObjectKey(n) {
			c.state.IsObjectKey = true
		}
	}
}

func (c *classifier) visitCall(n *CallExpr) {
	if isUseCall(n) {
		c.state.IsUseCallExpression = true
	}
	if isCollectionCallSlot(n) {
		c.state.IsCollectionName = true
	}
	if name, ok := c.databaseName(n); ok {
		c.state.DatabaseName = name
	}
}

func (c *classifier) visitMember(n *MemberExpr) {
	if isCursorSlot(n, aggregateMethod) {
		c.state.IsAggregationCursor = true
	}
	if isCursorSlot(n, findMethod) {
		c.state.IsFindCursor = true
	}
	if isShellMethod(n) {
		c.state.IsShellMethod = true
	}
	if isCollectionMemberSlot(n) {
		c.state.IsCollectionName = true
	}
	// Not gated on the placeholder: db.<coll>.<anything> always names the collection.
	if name, ok := collectionName(n); ok {
		c.state.CollectionName = name
	}
}

// isUseCall matches use('<cursor>') and use(`<cursor>`).
func isUseCall(n *CallExpr) bool {
	if !isIdent(n.Callee, useIdentifier) || len(n.Args) != 1 {
		return false
	}

	switch arg := n.Args[0].(type) {
	case *StringLiteral:
		return strings.Contains(arg.Value, Placeholder)
	case *TemplateLiteral:
		return len(arg.Quasis) == 1 && strings.Contains(arg.Quasis[0], Placeholder)
	}
	return false
}

// databaseName captures the literal of use('name') once the call ends at or
// before the cursor.
func (c *classifier) databaseName(n *CallExpr) (string, bool) {
	if !isIdent(n.Callee, useIdentifier) || len(n.Args) != 1 {
		return "", false
	}
	lit, ok := n.Args[0].(*StringLiteral)
	if !ok {
		return "", false
	}

	end := n.Loc.End
	if c.pos.Line > end.Line || (c.pos.Line == end.Line && c.pos.Character >= end.Column) {
		return lit.Value, true
	}
	return "", false
}

func isDbStatement(n *ExprStatement) bool {
	_, ok := dbMember(n.Expr)
	return ok
}

func isObjectKey(n *ObjectExpr) bool {
	for _, m := range n.Members {
		prop, ok := m.(*Property)
		if !ok {
			continue
		}
		if key, ok := prop.Key.(*Identifier); ok && hasPlaceholder(key) {
			return true
		}
	}
	return false
}

// isCollectionMemberSlot matches db.<cursor>.
func isCollectionMemberSlot(n *MemberExpr) bool {
	return isIdent(n.Object, dbIdentifier) && hasPlaceholder(n.Property)
}

// isCollectionCallSlot matches db.<cursor>.method(...).
func isCollectionCallSlot(n *CallExpr) bool {
	callee, ok := n.Callee.(*MemberExpr)
	if !ok {
		return false
	}
	inner, ok := dbMember(callee.Object)
	return ok && hasPlaceholder(inner.Property)
}

// isShellMethod matches db.<coll>.<cursor>.
func isShellMethod(n *MemberExpr) bool {
	_, ok := dbMember(n.Object)
	return ok && hasPlaceholder(n.Property)
}

// collectionName reports the name accessed on db under n. A computed
// db['x'] has no name and clears the one captured so far.
func collectionName(n *MemberExpr) (string, bool) {
	inner, ok := dbMember(n.Object)
	if !ok {
		return "", false
	}
	if inner.Property == nil {
		return "", true
	}
	return inner.Property.Name, true
}

// isCursorSlot matches <expr>.<method>(...).<cursor>.
func isCursorSlot(n *MemberExpr, method string) bool {
	if !hasPlaceholder(n.Property) {
		return false
	}
	call, ok := n.Object.(*CallExpr)
	if !ok {
		return false
	}
	callee, ok := call.Callee.(*MemberExpr)
	return ok && callee.Property != nil && callee.Property.Name == method
}

// dbMember returns n as a member access directly on the db identifier,
// computed or not.
func dbMember(n Node) (*MemberExpr, bool) {
	m, ok := n.(*MemberExpr)
	if !ok || !isIdent(m.Object, dbIdentifier) {
		return nil, false
	}
	return m, true
}

func isIdent(n Node, name string) bool {
	id, ok := n.(*Identifier)
	return ok && id.Name == name
}

func hasPlaceholder(id *Identifier) bool {
	return id != nil && strings.Contains(id.Name, Placeholder)
}
