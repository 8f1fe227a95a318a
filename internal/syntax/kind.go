package syntax

import "fmt"

// Kind is the category of a normalized syntax node.
type Kind uint8

const (
	Other Kind = iota
	File
	Ident
	BasicLit
	Selector
	Call
	Binary
	Unary
	Star
	Paren
	Index
	IndexList
	Slice
	TypeAssert
	CompositeLit
	KeyValue
	FuncLit
	ArrayType
	MapType
	ChanType
	FuncType
	StructType
	InterfaceType
	Ellipsis
	Field
	Block
	ExprStmt
	Assign
	IncDec
	Return
	If
	For
	Range
	Switch
	TypeSwitch
	CaseClause
	Select
	CommClause
	Go
	Defer
	Send
	Branch
	Labeled
	DeclStmt
	Empty
	GenDecl
	FuncDecl
	TypeSpec
	ValueSpec
	ImportSpec
	// List is a synthetic container for a list-valued child (arguments,
	// statements, fields...). It is never a match position itself.
	List
	// Boundary marks the start "(" or the end ")" of a List, or stands in
	// for a missing optional child. It is never a match position.
	Boundary

	kindCount
)

var kindNames = [kindCount]string{
	Other:         "Other",
	File:          "File",
	Ident:         "Ident",
	BasicLit:      "BasicLit",
	Selector:      "Selector",
	Call:          "Call",
	Binary:        "Binary",
	Unary:         "Unary",
	Star:          "Star",
	Paren:         "Paren",
	Index:         "Index",
	IndexList:     "IndexList",
	Slice:         "Slice",
	TypeAssert:    "TypeAssert",
	CompositeLit:  "CompositeLit",
	KeyValue:      "KeyValue",
	FuncLit:       "FuncLit",
	ArrayType:     "ArrayType",
	MapType:       "MapType",
	ChanType:      "ChanType",
	FuncType:      "FuncType",
	StructType:    "StructType",
	InterfaceType: "InterfaceType",
	Ellipsis:      "Ellipsis",
	Field:         "Field",
	Block:         "Block",
	ExprStmt:      "ExprStmt",
	Assign:        "Assign",
	IncDec:        "IncDec",
	Return:        "Return",
	If:            "If",
	For:           "For",
	Range:         "Range",
	Switch:        "Switch",
	TypeSwitch:    "TypeSwitch",
	CaseClause:    "CaseClause",
	Select:        "Select",
	CommClause:    "CommClause",
	Go:            "Go",
	Defer:         "Defer",
	Send:          "Send",
	Branch:        "Branch",
	Labeled:       "Labeled",
	DeclStmt:      "DeclStmt",
	Empty:         "Empty",
	GenDecl:       "GenDecl",
	FuncDecl:      "FuncDecl",
	TypeSpec:      "TypeSpec",
	ValueSpec:     "ValueSpec",
	ImportSpec:    "ImportSpec",
	List:          "List",
	Boundary:      "Boundary",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// NameBearing reports whether nodes of this kind carry a plain name that is
// not the node itself: selector members and declarations. Identifiers are
// excluded, a wildcard identifier already stands for any node.
func (k Kind) NameBearing() bool {
	switch k {
	case Selector, FuncDecl, TypeSpec, Labeled, ImportSpec:
		return true
	}
	return false
}

// Token is the fixed-width encoding of a Kind in the linear tree format.
type Token [2]byte

// The token tables are computed once and never written afterwards.
var (
	kindTokens = buildKindTokens()
	tokenKinds = buildTokenKinds(kindTokens)
)

func buildKindTokens() [kindCount]Token {
	var tokens [kindCount]Token
	for k := Kind(0); k < kindCount; k++ {
		tokens[k] = Token{'A' + byte(k)/26, 'A' + byte(k)%26}
	}
	return tokens
}

func buildTokenKinds(tokens [kindCount]Token) map[Token]Kind {
	m := make(map[Token]Kind, len(tokens))
	for k, tok := range tokens {
		m[tok] = Kind(k)
	}
	return m
}

// Token returns the two byte encoding of k.
func (k Kind) Token() Token {
	return kindTokens[k]
}

// KindOfToken is the inverse of Kind.Token.
func KindOfToken(t Token) (Kind, bool) {
	k, ok := tokenKinds[t]
	return k, ok
}
