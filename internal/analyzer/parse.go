package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// tree-sitter JavaScript node types the lowering cares about.
const (
	tsComment              = "comment"
	tsExpressionStatement  = "expression_statement"
	tsParenthesized        = "parenthesized_expression"
	tsCallExpression       = "call_expression"
	tsMemberExpression     = "member_expression"
	tsSubscriptExpression  = "subscript_expression"
	tsObject               = "object"
	tsPair                 = "pair"
	tsShorthandProperty    = "shorthand_property_identifier"
	tsMethodDefinition     = "method_definition"
	tsComputedPropertyName = "computed_property_name"
	tsIdentifier           = "identifier"
	tsPropertyIdentifier   = "property_identifier"
	tsUndefined            = "undefined"
	tsString               = "string"
	tsStringFragment       = "string_fragment"
	tsEscapeSequence       = "escape_sequence"
	tsTemplateString       = "template_string"
	tsTemplateSubstitution = "template_substitution"
	tsFieldOptionalChain   = "optional_chain"
	tsFieldFunction        = "function"
	tsFieldArguments       = "arguments"
	tsFieldObject          = "object"
	tsFieldProperty        = "property"
	tsFieldIndex           = "index"
	tsFieldKey             = "key"
	tsFieldValue           = "value"
	tsFieldName            = "name"
	kindTaggedTemplate     = "tagged_template"
	kindOptionalMember     = "optional_member_expression"
	kindOptionalSubscript  = "optional_subscript_expression"
	kindOptionalCall       = "optional_call_expression"
	kindObjectMethod       = "object_method"
)

// Parse parses src as a module and lowers the tree-sitter tree into the
// classifier's AST. Any syntax error, including missing tokens that
// tree-sitter would otherwise recover from, is reported as *SyntaxError.
func Parse(src []byte) (*Program, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	l := newLowerer(src)
	root := tree.RootNode()
	if root.HasError() {
		return nil, l.syntaxError(root)
	}

	if err := l.checkStrict(root); err != nil {
		return nil, err
	}

	prog := &Program{Loc: l.span(root)}
	prog.Body = l.lowerChildren(root)
	return prog, nil
}

type lowerer struct {
	src        []byte
	lineStarts []int
}

func newLowerer(src []byte) *lowerer {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lowerer{src: src, lineStarts: starts}
}

func (l *lowerer) lower(n *sitter.Node) Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case tsExpressionStatement:
		return &ExprStatement{Loc: l.span(n), Expr: l.lower(firstNamed(n))}

	case tsParenthesized:
		return l.lower(firstNamed(n))

	case tsCallExpression:
		return l.lowerCall(n)

	case tsMemberExpression:
		return l.lowerMember(n)

	case tsSubscriptExpression:
		return l.lowerSubscript(n)

	case tsObject:
		return l.lowerObject(n)

	case tsIdentifier, tsPropertyIdentifier, tsShorthandProperty, tsUndefined:
		return l.ident(n)

	case tsString:
		return &StringLiteral{Loc: l.span(n), Value: l.stringValue(n)}

	case tsTemplateString:
		return l.lowerTemplate(n)
	}

	return &Other{Loc: l.span(n), Kind: n.Type(), Children: l.lowerChildren(n)}
}

func (l *lowerer) lowerCall(n *sitter.Node) Node {
	fn := n.ChildByFieldName(tsFieldFunction)
	args := n.ChildByFieldName(tsFieldArguments)

	if n.ChildByFieldName(tsFieldOptionalChain) != nil {
		return &Other{Loc: l.span(n), Kind: kindOptionalCall, Children: l.lowerChildren(n)}
	}
	// tag`...` is a tagged template, not a call with a template argument.
	if args != nil && args.Type() == tsTemplateString {
		return &Other{Loc: l.span(n), Kind: kindTaggedTemplate, Children: l.lowerChildren(n)}
	}

	return &CallExpr{
		Loc:    l.span(n),
		Callee: l.lower(fn),
		Args:   l.lowerChildren(args),
	}
}

func (l *lowerer) lowerMember(n *sitter.Node) Node {
	if n.ChildByFieldName(tsFieldOptionalChain) != nil {
		return &Other{Loc: l.span(n), Kind: kindOptionalMember, Children: l.lowerChildren(n)}
	}

	member := &MemberExpr{
		Loc:    l.span(n),
		Object: l.lower(n.ChildByFieldName(tsFieldObject)),
	}
	if prop := n.ChildByFieldName(tsFieldProperty); prop != nil && prop.Type() == tsPropertyIdentifier {
		member.Property = l.ident(prop)
	}
	return member
}

// lowerSubscript maps a[b]. Only an identifier index gets a Property,
// so a['b'] never names b.
func (l *lowerer) lowerSubscript(n *sitter.Node) Node {
	if n.ChildByFieldName(tsFieldOptionalChain) != nil {
		return &Other{Loc: l.span(n), Kind: kindOptionalSubscript, Children: l.lowerChildren(n)}
	}

	member := &MemberExpr{
		Loc:      l.span(n),
		Object:   l.lower(n.ChildByFieldName(tsFieldObject)),
		Index:    l.lower(n.ChildByFieldName(tsFieldIndex)),
		Computed: true,
	}
	if id, ok := member.Index.(*Identifier); ok {
		member.Property = id
	}
	return member
}

func (l *lowerer) lowerObject(n *sitter.Node) Node {
	obj := &ObjectExpr{Loc: l.span(n)}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case tsComment:
			continue
		case tsPair:
			obj.Members = append(obj.Members, &Property{
				Loc:   l.span(child),
				Key:   l.lowerKey(child.ChildByFieldName(tsFieldKey)),
				Value: l.lower(child.ChildByFieldName(tsFieldValue)),
			})
		case tsShorthandProperty:
			id := l.ident(child)
			obj.Members = append(obj.Members, &Property{
				Loc:       l.span(child),
				Key:       id,
				Value:     id,
				Shorthand: true,
			})
		case tsMethodDefinition:
			name := child.ChildByFieldName(tsFieldName)
			var body []Node
			for j := 0; j < int(child.NamedChildCount()); j++ {
				c := child.NamedChild(j)
				if c.Type() == tsComment || sameNode(c, name) {
					continue
				}
				if lowered := l.lower(c); lowered != nil {
					body = append(body, lowered)
				}
			}
			obj.Members = append(obj.Members, &Property{
				Loc:   l.span(child),
				Key:   l.lowerKey(name),
				Value: &Other{Loc: l.span(child), Kind: kindObjectMethod, Children: body},
			})
		default:
			if lowered := l.lower(child); lowered != nil {
				obj.Members = append(obj.Members, lowered)
			}
		}
	}

	return obj
}

// lowerKey maps a property key. Computed keys lower to their expression.
func (l *lowerer) lowerKey(n *sitter.Node) Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case tsPropertyIdentifier:
		return l.ident(n)
	case tsComputedPropertyName:
		return l.lower(firstNamed(n))
	}
	return l.lower(n)
}

func (l *lowerer) lowerTemplate(n *sitter.Node) Node {
	tpl := &TemplateLiteral{Loc: l.span(n)}

	start := int(n.StartByte()) + 1
	end := int(n.EndByte()) - 1
	if end < start {
		end = start
	}

	cursor := start
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != tsTemplateSubstitution {
			continue
		}
		tpl.Quasis = append(tpl.Quasis, string(l.src[cursor:child.StartByte()]))
		tpl.Exprs = append(tpl.Exprs, l.lower(firstNamed(child)))
		cursor = int(child.EndByte())
	}
	if cursor > end {
		cursor = end
	}
	tpl.Quasis = append(tpl.Quasis, string(l.src[cursor:end]))

	return tpl
}

func (l *lowerer) lowerChildren(n *sitter.Node) []Node {
	if n == nil {
		return nil
	}
	var out []Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == tsComment {
			continue
		}
		if lowered := l.lower(child); lowered != nil {
			out = append(out, lowered)
		}
	}
	return out
}

func (l *lowerer) ident(n *sitter.Node) *Identifier {
	return &Identifier{Loc: l.span(n), Name: n.Content(l.src)}
}

// stringValue returns the unescaped contents of a string node. A \u escape
// of a high surrogate followed by one of a low surrogate decodes to a
// single character; unpaired halves become U+FFFD.
func (l *lowerer) stringValue(n *sitter.Node) string {
	var b strings.Builder
	var high rune
	flush := func() {
		if high != 0 {
			b.WriteRune(utf8.RuneError)
			high = 0
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case tsStringFragment:
			flush()
			b.WriteString(child.Content(l.src))
		case tsEscapeSequence:
			seq := child.Content(l.src)
			if r, ok := codeUnit(seq); ok && utf16.IsSurrogate(r) {
				if r < 0xdc00 {
					flush()
					high = r
					continue
				}
				if high != 0 {
					b.WriteRune(utf16.DecodeRune(high, r))
					high = 0
					continue
				}
			}
			flush()
			b.WriteString(unescape(seq))
		}
	}
	flush()
	return b.String()
}

// codeUnit returns the value of a \uXXXX or \u{X} escape.
func codeUnit(seq string) (rune, bool) {
	if !strings.HasPrefix(seq, `\u`) {
		return 0, false
	}
	v, err := strconv.ParseUint(strings.Trim(seq[2:], "{}"), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}

	switch seq[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		if len(seq) == 2 {
			return "\x00"
		}
	case '\n', '\r':
		// line continuation
		return ""
	case 'x', 'u':
		hex := strings.Trim(seq[2:], "{}")
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
	}
	return seq[1:]
}

func (l *lowerer) syntaxError(root *sitter.Node) *SyntaxError {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}

	msg := "unexpected token"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %q", bad.Type())
	} else if text := bad.Content(l.src); text != "" && len(text) <= 32 {
		msg = fmt.Sprintf("unexpected %q", text)
	}

	start := l.point(bad.StartPoint())
	return &SyntaxError{Line: start.Line, Column: start.Column, Msg: msg}
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil &&
		a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func firstNamed(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != tsComment {
			return child
		}
	}
	return nil
}

func (l *lowerer) span(n *sitter.Node) Span {
	return Span{Start: l.point(n.StartPoint()), End: l.point(n.EndPoint())}
}

// point converts a tree-sitter byte column into a UTF-16 column.
func (l *lowerer) point(p sitter.Point) Point {
	row := int(p.Row)
	if row >= len(l.lineStarts) {
		return Point{Line: row, Column: int(p.Column)}
	}

	start := l.lineStarts[row]
	end := start + int(p.Column)
	if end > len(l.src) {
		end = len(l.src)
	}

	col := 0
	for _, r := range string(l.src[start:end]) {
		col += utf16.RuneLen(r)
	}
	return Point{Line: row, Column: col}
}
