package syntax

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePlaceholders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "single",
			input: "$a == $b",
			want:  singlePrefix + "a == " + singlePrefix + "b",
		},
		{
			name:  "multi",
			input: "{ $before$; f() }",
			want:  "{ " + multiPrefix + "before; f() }",
		},
		{
			name:  "string literal untouched",
			input: `fmt.Println("$x", $y)`,
			want:  `fmt.Println("$x", ` + singlePrefix + "y)",
		},
		{
			name:  "raw string and comment untouched",
			input: "f(`$a`) // $b",
			want:  "f(`$a`) // $b",
		},
		{
			name:    "dangling dollar",
			input:   "f($)",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rewritePlaceholders(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePattern(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{
			name:    "method call",
			pattern: "$a.equals($b)",
			want:    "(Call (Selector equals (Ident $a *)) (List (Ident $b *)))",
		},
		{
			name:    "binary",
			pattern: "$a == $b",
			want:    "(Binary == (Ident $a *) (Ident $b *))",
		},
		{
			name:    "block with multi wildcards",
			pattern: "{ $before$; target(); $after$; }",
			want:    "(Block (List (ExprStmt $before$ **) (ExprStmt (Call (Ident target) (List))) (ExprStmt $after$ **)))",
		},
		{
			name:    "assignment statement",
			pattern: "x := $v",
			want:    "(Assign := (List (Ident x)) (List (Ident $v *)))",
		},
		{
			name:    "declaration with wildcard name",
			pattern: "func $f($p$) {}",
			want:    "(FuncDecl $f (List) (FuncType (List) (List (Field $p$ **)) (List)) (Block (List)))",
		},
		{
			name:    "local declaration",
			pattern: "type $t struct { $fields$ }",
			want:    "(GenDecl type (List (TypeSpec $t (List) (StructType (List (Field $fields$ **))))))",
		},
		{
			name:    "slice with missing bounds",
			pattern: "$s[1:]",
			want:    "(Slice : (Ident $s *) (BasicLit 1) (Boundary _) (Boundary _))",
		},
		{
			name:    "type alias",
			pattern: "type $t = int",
			want:    "(GenDecl type (List (TypeSpec $t (List) (Boundary =) (Ident int))))",
		},
		{
			name:    "for without condition",
			pattern: "for { $body$ }",
			want:    "(For (Boundary _) (Boundary _) (Boundary _) (Block (List (ExprStmt $body$ **))))",
		},
		{
			name:    "qualified name",
			pattern: "fmt.Println",
			want:    "(Selector Println (Ident fmt))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.String())
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	t.Parallel()

	_, err := ParsePattern("   ")
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = ParsePattern("a(); b()")
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = ParsePattern("func (")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	src := `package main

import "fmt"

func main() {
	fmt.Println("hi")
}
`
	fset := token.NewFileSet()
	root, f, err := ParseFile(fset, "main.go", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, f)

	assert.Equal(t, File, root.Kind)
	names := map[string]struct{}{}
	Names(root, names)
	assert.Contains(t, names, "main")
	assert.Contains(t, names, "fmt")
	assert.Contains(t, names, "Println")
	assert.NotContains(t, names, `"hi"`)
}
