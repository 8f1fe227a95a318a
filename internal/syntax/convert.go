package syntax

import (
	"go/ast"
	"go/token"
	"reflect"
)

// FromAST converts an ast node and its subtree into a normalized tree.
// Identifiers produced by ParsePattern for "$x" and "$x$" placeholders become
// wildcards; ordinary code never contains them.
func FromAST(n ast.Node) *Node {
	if isNil(n) {
		return nil
	}
	return convert(n)
}

func isNil(n ast.Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// builder accumulates the children of one node.
type builder struct {
	n *Node
}

func newNode(kind Kind, origin ast.Node) builder {
	return builder{n: &Node{Kind: kind, Origin: origin}}
}

func (b builder) name(name string) builder {
	b.n.Name = name
	return b
}

func (b builder) op(op string) builder {
	b.n.Op = op
	return b
}

// child appends the conversion of c, skipping absent optional children.
// Use it only where the remaining children cannot shift into the empty slot.
func (b builder) child(c ast.Node) builder {
	if !isNil(c) {
		b.n.Children = append(b.n.Children, convert(c))
	}
	return b
}

// opt appends the conversion of c, or an Absent marker holding its slot.
func (b builder) opt(c ast.Node) builder {
	if isNil(c) {
		return b.mark(Absent)
	}
	b.n.Children = append(b.n.Children, convert(c))
	return b
}

// mark appends a Boundary leaf labeled op.
func (b builder) mark(op string) builder {
	b.n.Children = append(b.n.Children, &Node{Kind: Boundary, Op: op})
	return b
}

func (b builder) exprs(list []ast.Expr) builder {
	l := &Node{Kind: List}
	for _, e := range list {
		if !isNil(e) {
			l.Children = append(l.Children, convert(e))
		}
	}
	b.n.Children = append(b.n.Children, l)
	return b
}

func (b builder) stmts(list []ast.Stmt) builder {
	l := &Node{Kind: List}
	for _, s := range list {
		if !isNil(s) {
			l.Children = append(l.Children, convert(s))
		}
	}
	b.n.Children = append(b.n.Children, l)
	return b
}

func (b builder) idents(list []*ast.Ident) builder {
	l := &Node{Kind: List}
	for _, id := range list {
		if id != nil {
			l.Children = append(l.Children, convert(id))
		}
	}
	b.n.Children = append(b.n.Children, l)
	return b
}

// fields appends a field list as a List child. A nil list becomes an empty
// List so that neighbouring field lists keep their slots.
func (b builder) fields(fl *ast.FieldList) builder {
	l := &Node{Kind: List}
	if fl != nil {
		l.Origin = fl
		for _, f := range fl.List {
			l.Children = append(l.Children, convert(f))
		}
	}
	b.n.Children = append(b.n.Children, l)
	return b
}

func (b builder) node() *Node {
	return b.n
}

func convert(n ast.Node) *Node {
	switch x := n.(type) {
	case *ast.File:
		b := newNode(File, x)
		l := &Node{Kind: List}
		for _, d := range x.Decls {
			l.Children = append(l.Children, convert(d))
		}
		b.n.Children = append(b.n.Children, l)
		return b.node()

	case *ast.Ident:
		return convertIdent(x)
	case *ast.BasicLit:
		return newNode(BasicLit, x).op(x.Value).node()
	case *ast.SelectorExpr:
		return newNode(Selector, x).name(placeholderName(x.Sel.Name)).child(x.X).node()
	case *ast.CallExpr:
		b := newNode(Call, x).child(x.Fun).exprs(x.Args)
		if x.Ellipsis.IsValid() {
			b = b.op("...")
		}
		return b.node()
	case *ast.BinaryExpr:
		return newNode(Binary, x).op(x.Op.String()).child(x.X).child(x.Y).node()
	case *ast.UnaryExpr:
		return newNode(Unary, x).op(x.Op.String()).child(x.X).node()
	case *ast.StarExpr:
		return newNode(Star, x).child(x.X).node()
	case *ast.ParenExpr:
		return newNode(Paren, x).child(x.X).node()
	case *ast.IndexExpr:
		return newNode(Index, x).child(x.X).child(x.Index).node()
	case *ast.IndexListExpr:
		return newNode(IndexList, x).child(x.X).exprs(x.Indices).node()
	case *ast.SliceExpr:
		op := ":"
		if x.Slice3 {
			op = "::"
		}
		return newNode(Slice, x).op(op).child(x.X).opt(x.Low).opt(x.High).opt(x.Max).node()
	case *ast.TypeAssertExpr:
		b := newNode(TypeAssert, x).child(x.X)
		if x.Type == nil {
			b = b.op("type")
		}
		return b.child(x.Type).node()
	case *ast.CompositeLit:
		return newNode(CompositeLit, x).opt(x.Type).exprs(x.Elts).node()
	case *ast.KeyValueExpr:
		return newNode(KeyValue, x).child(x.Key).child(x.Value).node()
	case *ast.FuncLit:
		return newNode(FuncLit, x).child(x.Type).child(x.Body).node()
	case *ast.ArrayType:
		op := "[]"
		if x.Len != nil {
			op = "[n]"
		}
		return newNode(ArrayType, x).op(op).child(x.Len).child(x.Elt).node()
	case *ast.MapType:
		return newNode(MapType, x).child(x.Key).child(x.Value).node()
	case *ast.ChanType:
		return newNode(ChanType, x).op(chanDir(x.Dir)).child(x.Value).node()
	case *ast.FuncType:
		return newNode(FuncType, x).fields(x.TypeParams).fields(x.Params).fields(x.Results).node()
	case *ast.StructType:
		return newNode(StructType, x).fields(x.Fields).node()
	case *ast.InterfaceType:
		return newNode(InterfaceType, x).fields(x.Methods).node()
	case *ast.Ellipsis:
		return newNode(Ellipsis, x).child(x.Elt).node()
	case *ast.Field:
		return convertField(x)

	case *ast.BlockStmt:
		return newNode(Block, x).stmts(x.List).node()
	case *ast.ExprStmt:
		if id, ok := x.X.(*ast.Ident); ok {
			if wc := convertIdent(id); wc.Wildcard != NotWildcard {
				// "$s;" stands for a whole statement.
				return &Node{Kind: ExprStmt, Name: wc.Name, Wildcard: wc.Wildcard, Origin: x}
			}
		}
		return newNode(ExprStmt, x).child(x.X).node()
	case *ast.AssignStmt:
		return newNode(Assign, x).op(x.Tok.String()).exprs(x.Lhs).exprs(x.Rhs).node()
	case *ast.IncDecStmt:
		return newNode(IncDec, x).op(x.Tok.String()).child(x.X).node()
	case *ast.ReturnStmt:
		return newNode(Return, x).exprs(x.Results).node()
	case *ast.IfStmt:
		return newNode(If, x).opt(x.Init).child(x.Cond).child(x.Body).opt(x.Else).node()
	case *ast.ForStmt:
		return newNode(For, x).opt(x.Init).opt(x.Cond).opt(x.Post).child(x.Body).node()
	case *ast.RangeStmt:
		b := newNode(Range, x)
		if x.Tok != token.ILLEGAL {
			b = b.op(x.Tok.String())
		}
		return b.opt(x.Key).opt(x.Value).child(x.X).child(x.Body).node()
	case *ast.SwitchStmt:
		return newNode(Switch, x).opt(x.Init).opt(x.Tag).child(x.Body).node()
	case *ast.TypeSwitchStmt:
		return newNode(TypeSwitch, x).opt(x.Init).child(x.Assign).child(x.Body).node()
	case *ast.CaseClause:
		b := newNode(CaseClause, x)
		if x.List == nil {
			b = b.op("default")
		}
		return b.exprs(x.List).stmts(x.Body).node()
	case *ast.SelectStmt:
		return newNode(Select, x).child(x.Body).node()
	case *ast.CommClause:
		b := newNode(CommClause, x)
		if x.Comm == nil {
			b = b.op("default")
		}
		return b.child(x.Comm).stmts(x.Body).node()
	case *ast.GoStmt:
		return newNode(Go, x).child(x.Call).node()
	case *ast.DeferStmt:
		return newNode(Defer, x).child(x.Call).node()
	case *ast.SendStmt:
		return newNode(Send, x).child(x.Chan).child(x.Value).node()
	case *ast.BranchStmt:
		return newNode(Branch, x).op(x.Tok.String()).child(x.Label).node()
	case *ast.LabeledStmt:
		return newNode(Labeled, x).name(placeholderName(x.Label.Name)).child(x.Stmt).node()
	case *ast.DeclStmt:
		return newNode(DeclStmt, x).child(x.Decl).node()
	case *ast.EmptyStmt:
		return newNode(Empty, x).node()

	case *ast.GenDecl:
		b := newNode(GenDecl, x).op(x.Tok.String())
		l := &Node{Kind: List}
		for _, s := range x.Specs {
			l.Children = append(l.Children, convert(s))
		}
		b.n.Children = append(b.n.Children, l)
		return b.node()
	case *ast.FuncDecl:
		return newNode(FuncDecl, x).name(placeholderName(x.Name.Name)).
			fields(x.Recv).child(x.Type).opt(x.Body).node()
	case *ast.TypeSpec:
		b := newNode(TypeSpec, x).name(placeholderName(x.Name.Name)).fields(x.TypeParams)
		if x.Assign.IsValid() {
			// the label carries the name, so an alias is told apart by a leaf
			b = b.mark("=")
		}
		return b.child(x.Type).node()
	case *ast.ValueSpec:
		return newNode(ValueSpec, x).idents(x.Names).opt(x.Type).exprs(x.Values).node()
	case *ast.ImportSpec:
		b := newNode(ImportSpec, x)
		if x.Name != nil {
			b = b.name(x.Name.Name)
		}
		return b.child(x.Path).node()
	}
	return &Node{Kind: Other, Origin: n}
}

func convertIdent(id *ast.Ident) *Node {
	n := &Node{Kind: Ident, Name: placeholderName(id.Name), Origin: id}
	switch {
	case isMultiPlaceholder(id.Name):
		n.Wildcard = Multi
	case isSinglePlaceholder(id.Name):
		n.Wildcard = Single
	}
	return n
}

func convertField(f *ast.Field) *Node {
	if len(f.Names) == 0 && f.Tag == nil {
		if id, ok := f.Type.(*ast.Ident); ok {
			if wc := convertIdent(id); wc.Wildcard != NotWildcard {
				// An unnamed parameter "$p" stands for a whole field.
				return &Node{Kind: Field, Name: wc.Name, Wildcard: wc.Wildcard, Origin: f}
			}
		}
	}
	return newNode(Field, f).idents(f.Names).child(f.Type).child(f.Tag).node()
}

func chanDir(dir ast.ChanDir) string {
	switch dir {
	case ast.SEND:
		return "chan<-"
	case ast.RECV:
		return "<-chan"
	}
	return "chan"
}
