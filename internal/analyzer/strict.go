package analyzer

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// tree-sitter accepts sloppy-mode scripts and JSX. Module code is strict,
// so these node types need a second look after a clean parse.
const (
	tsProgram                  = "program"
	tsWithStatement            = "with_statement"
	tsHTMLComment              = "html_comment"
	tsNumber                   = "number"
	tsUnaryExpression          = "unary_expression"
	tsFormalParameters         = "formal_parameters"
	tsStatementBlock           = "statement_block"
	tsSwitchBody               = "switch_body"
	tsSwitchCase               = "switch_case"
	tsSwitchDefault            = "switch_default"
	tsExportStatement          = "export_statement"
	tsLexicalDeclaration       = "lexical_declaration"
	tsVariableDeclaration      = "variable_declaration"
	tsVariableDeclarator       = "variable_declarator"
	tsFunctionDeclaration      = "function_declaration"
	tsGeneratorDeclaration     = "generator_function_declaration"
	tsClassDeclaration         = "class_declaration"
	tsCatchClause              = "catch_clause"
	tsAssignmentPattern        = "assignment_pattern"
	tsObjectAssignmentPattern  = "object_assignment_pattern"
	tsPairPattern              = "pair_pattern"
	tsRestPattern              = "rest_pattern"
	tsObjectPattern            = "object_pattern"
	tsArrayPattern             = "array_pattern"
	tsShorthandPropertyPattern = "shorthand_property_identifier_pattern"
	tsFieldOperator            = "operator"
	tsFieldArgument            = "argument"
	tsFieldLeft                = "left"
	tsFieldDeclaration         = "declaration"
	tsFieldParameter           = "parameter"
	tsJSXPrefix                = "jsx_"
	tsDeleteOperator           = "delete"
)

const (
	msgStrictWith     = "with statement is not allowed in strict mode"
	msgJSX            = "JSX is not supported"
	msgHTMLComment    = "HTML comments are not allowed in modules"
	msgLegacyOctal    = "legacy octal literals are not allowed in strict mode"
	msgOctalEscape    = "octal escape sequences are not allowed in strict mode"
	msgDeleteLocal    = "deleting a local variable is not allowed in strict mode"
	msgParamClash     = "duplicate parameter name %q"
	msgRedeclared     = "identifier %q has already been declared"
	msgReservedWord   = "unexpected reserved word %q"
	msgRestrictedBind = "binding %q is not allowed in strict mode"
)

// strictReserved are identifiers only in sloppy mode. await is reserved in
// modules.
var strictReserved = map[string]bool{
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
	"await":      true,
}

type strictChecker struct {
	l   *lowerer
	err *SyntaxError
}

// checkStrict rejects what a strict module parser would reject but
// tree-sitter accepts.
func (l *lowerer) checkStrict(root *sitter.Node) error {
	c := &strictChecker{l: l}
	c.visit(root)
	if c.err != nil {
		return c.err
	}
	return nil
}

func (c *strictChecker) fail(n *sitter.Node, msg string) {
	if c.err != nil {
		return
	}
	start := c.l.point(n.StartPoint())
	c.err = &SyntaxError{Line: start.Line, Column: start.Column, Msg: msg}
}

func (c *strictChecker) visit(n *sitter.Node) {
	if n == nil || c.err != nil {
		return
	}

	typ := n.Type()
	switch typ {
	case tsWithStatement:
		c.fail(n, msgStrictWith)
	case tsHTMLComment:
		c.fail(n, msgHTMLComment)
	case tsNumber:
		if isLegacyOctal(n.Content(c.l.src)) {
			c.fail(n, msgLegacyOctal)
		}
	case tsEscapeSequence:
		if c.isOctalEscape(n) {
			c.fail(n, msgOctalEscape)
		}
	case tsUnaryExpression:
		c.checkDelete(n)
	case tsIdentifier, tsShorthandProperty, tsShorthandPropertyPattern:
		if name := n.Content(c.l.src); strictReserved[name] {
			c.fail(n, fmt.Sprintf(msgReservedWord, name))
		}
	case tsFormalParameters:
		c.checkParams(bindingNames(n, nil))
	case tsCatchClause:
		c.checkParams(bindingNames(n.ChildByFieldName(tsFieldParameter), nil))
	case tsProgram, tsStatementBlock:
		c.checkScope(namedChildren(n))
	case tsSwitchBody:
		var stmts []*sitter.Node
		for _, clause := range namedChildren(n) {
			if t := clause.Type(); t == tsSwitchCase || t == tsSwitchDefault {
				stmts = append(stmts, namedChildren(clause)...)
			}
		}
		c.checkScope(stmts)
	default:
		if strings.HasPrefix(typ, tsJSXPrefix) {
			c.fail(n, msgJSX)
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		c.visit(n.Child(i))
	}
}

// isLegacyOctal matches 010 and 08 style numbers.
func isLegacyOctal(num string) bool {
	return len(num) > 1 && num[0] == '0' && isDigit(num[1])
}

// isOctalEscape matches \1 through \9 and \0 followed by a digit, outside
// tagged templates.
func (c *strictChecker) isOctalEscape(n *sitter.Node) bool {
	src := c.l.src
	at := int(n.StartByte()) + 1
	if at >= len(src) {
		return false
	}

	switch b := src[at]; {
	case b >= '1' && b <= '9':
	case b == '0' && at+1 < len(src) && isDigit(src[at+1]):
	default:
		return false
	}

	parent := n.Parent()
	if parent != nil && parent.Type() == tsTemplateString {
		if tag := parent.Parent(); tag != nil && tag.Type() == tsCallExpression {
			return false
		}
	}
	return true
}

func (c *strictChecker) checkDelete(n *sitter.Node) {
	op := n.ChildByFieldName(tsFieldOperator)
	if op == nil || op.Type() != tsDeleteOperator {
		return
	}
	arg := n.ChildByFieldName(tsFieldArgument)
	for arg != nil && arg.Type() == tsParenthesized {
		arg = firstNamed(arg)
	}
	if arg != nil && arg.Type() == tsIdentifier {
		c.fail(n, msgDeleteLocal)
	}
}

func (c *strictChecker) checkParams(names []*sitter.Node) {
	seen := make(map[string]bool, len(names))
	for _, id := range names {
		name := id.Content(c.l.src)
		if isRestrictedBinding(name) {
			c.fail(id, fmt.Sprintf(msgRestrictedBind, name))
			return
		}
		if seen[name] {
			c.fail(id, fmt.Sprintf(msgParamClash, name))
			return
		}
		seen[name] = true
	}
}

// checkScope reports a name declared twice among stmts when either
// declaration is lexical. var may repeat.
func (c *strictChecker) checkScope(stmts []*sitter.Node) {
	lexical := make(map[string]bool)
	for _, stmt := range stmts {
		if stmt.Type() == tsExportStatement {
			if decl := stmt.ChildByFieldName(tsFieldDeclaration); decl != nil {
				stmt = decl
			}
		}

		var names []*sitter.Node
		isLexical := true
		switch stmt.Type() {
		case tsLexicalDeclaration:
			names = declaratorNames(stmt)
		case tsVariableDeclaration:
			names = declaratorNames(stmt)
			isLexical = false
		case tsFunctionDeclaration, tsGeneratorDeclaration, tsClassDeclaration:
			if id := stmt.ChildByFieldName(tsFieldName); id != nil {
				names = []*sitter.Node{id}
			}
		default:
			continue
		}

		for _, id := range names {
			name := id.Content(c.l.src)
			if isRestrictedBinding(name) {
				c.fail(id, fmt.Sprintf(msgRestrictedBind, name))
				return
			}
			prev, declared := lexical[name]
			if declared && (prev || isLexical) {
				c.fail(id, fmt.Sprintf(msgRedeclared, name))
				return
			}
			lexical[name] = prev || isLexical
		}
	}
}

func declaratorNames(decl *sitter.Node) []*sitter.Node {
	var names []*sitter.Node
	for _, d := range namedChildren(decl) {
		if d.Type() == tsVariableDeclarator {
			names = bindingNames(d.ChildByFieldName(tsFieldName), names)
		}
	}
	return names
}

// bindingNames appends the identifiers a binding pattern declares. Default
// values are not bindings and are skipped.
func bindingNames(n *sitter.Node, out []*sitter.Node) []*sitter.Node {
	if n == nil {
		return out
	}
	switch n.Type() {
	case tsIdentifier, tsShorthandPropertyPattern:
		return append(out, n)
	case tsAssignmentPattern, tsObjectAssignmentPattern:
		return bindingNames(n.ChildByFieldName(tsFieldLeft), out)
	case tsPairPattern:
		return bindingNames(n.ChildByFieldName(tsFieldValue), out)
	case tsRestPattern:
		return bindingNames(firstNamed(n), out)
	case tsObjectPattern, tsArrayPattern, tsFormalParameters:
		for _, child := range namedChildren(n) {
			out = bindingNames(child, out)
		}
	}
	return out
}

func isRestrictedBinding(name string) bool {
	return name == "eval" || name == "arguments"
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != tsComment {
			out = append(out, child)
		}
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
