package analyzer

// Point is a zero-based location. Column counts UTF-16 code units so it can
// be compared directly with editor positions.
type Point struct {
	Line   int
	Column int
}

// Span is the source extent of a node.
type Span struct {
	Start Point
	End   Point
}

// Node is one of the AST node types declared in this file.
type Node interface {
	Span() Span
	node()
}

// Program is the root of a parsed playground.
type Program struct {
	Loc  Span
	Body []Node
}

// ExprStatement is an expression used as a statement.
type ExprStatement struct {
	Loc  Span
	Expr Node
}

// CallExpr is a call such as db.coll.find(...). Callee may be nil.
type CallExpr struct {
	Loc    Span
	Callee Node
	Args   []Node
}

// MemberExpr is a property access, either a.b or a[b]. Property is set when
// the accessed name is a plain identifier, including a computed a[b] whose
// index is one. Index holds the lowered expression of a computed access.
type MemberExpr struct {
	Loc      Span
	Object   Node
	Property *Identifier
	Computed bool
	Index    Node
}

// ObjectExpr is an object literal. Members holds *Property values and Other
// nodes for spread elements.
type ObjectExpr struct {
	Loc     Span
	Members []Node
}

// Property is a key/value pair, a shorthand property or a method inside an
// object literal. Key is nil when the key is not nameable.
type Property struct {
	Loc       Span
	Key       Node
	Value     Node
	Shorthand bool
}

// Identifier covers both binding identifiers and property names.
type Identifier struct {
	Loc  Span
	Name string
}

// StringLiteral holds the unescaped value of a quoted string.
type StringLiteral struct {
	Loc   Span
	Value string
}

// TemplateLiteral holds the raw text segments around each substitution.
// len(Quasis) == len(Exprs)+1.
type TemplateLiteral struct {
	Loc    Span
	Quasis []string
	Exprs  []Node
}

// Other is any construct the classifier has no predicate for. Its children
// are kept so that nested expressions are still visited.
type Other struct {
	Loc      Span
	Kind     string
	Children []Node
}

func (n *Program) Span() Span         { return n.Loc }
func (n *ExprStatement) Span() Span   { return n.Loc }
func (n *CallExpr) Span() Span        { return n.Loc }
func (n *MemberExpr) Span() Span      { return n.Loc }
func (n *ObjectExpr) Span() Span      { return n.Loc }
func (n *Property) Span() Span        { return n.Loc }
func (n *Identifier) Span() Span      { return n.Loc }
func (n *StringLiteral) Span() Span   { return n.Loc }
func (n *TemplateLiteral) Span() Span { return n.Loc }
func (n *Other) Span() Span           { return n.Loc }

func (*Program) node()         {}
func (*ExprStatement) node()   {}
func (*CallExpr) node()        {}
func (*MemberExpr) node()      {}
func (*ObjectExpr) node()      {}
func (*Property) node()        {}
func (*Identifier) node()      {}
func (*StringLiteral) node()   {}
func (*TemplateLiteral) node() {}
func (*Other) node()           {}

// Walk visits n and all of its descendants in pre-order.
func Walk(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)

	switch n := n.(type) {
	case *Program:
		for _, s := range n.Body {
			Walk(s, fn)
		}
	case *ExprStatement:
		Walk(n.Expr, fn)
	case *CallExpr:
		Walk(n.Callee, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *MemberExpr:
		Walk(n.Object, fn)
		if n.Computed {
			Walk(n.Index, fn)
		} else if n.Property != nil {
			Walk(n.Property, fn)
		}
	case *ObjectExpr:
		for _, m := range n.Members {
			Walk(m, fn)
		}
	case *Property:
		Walk(n.Key, fn)
		if !n.Shorthand {
			Walk(n.Value, fn)
		}
	case *TemplateLiteral:
		for _, e := range n.Exprs {
			Walk(e, fn)
		}
	case *Other:
		for _, c := range n.Children {
			Walk(c, fn)
		}
	}
}
