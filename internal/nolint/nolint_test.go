package nolint

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirective(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text    string
		want    []string
		wantErr bool
	}{
		{text: "//nolint", want: nil},
		{text: "//nolint because", want: nil},
		{text: "//nolint:equals-call", want: []string{"equals-call"}},
		{text: "//nolint:a, b ,c", want: []string{"a"}},
		{text: "//nolint:a,b,c explanation", want: []string{"a", "b", "c"}},
		{text: "//nolint:", wantErr: true},
		{text: "//nolintx", wantErr: true},
		{text: "// nolint", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			hints, err := parseDirective(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, hints, len(tt.want))
			for _, h := range tt.want {
				assert.Contains(t, hints, h)
			}
		})
	}
}

func TestSuppressed(t *testing.T) {
	t.Parallel()
	src := `package main

func main() {
	//nolint
	x.equals(1)
	x.equals(2)
	x.equals(3) //nolint:equals-call
	//nolint:other
	x.equals(4)
}

//nolint:equals-call
func helper() {
	x.equals(5)
}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "main.go", src, parser.ParseComments)
	require.NoError(t, err)
	m := Parse(fset, f)

	tests := []struct {
		hint string
		line int
		want bool
	}{
		{"equals-call", 5, true},
		{"equals-call", 6, false},
		{"equals-call", 7, true},
		{"other", 7, false},
		{"other", 9, true},
		{"equals-call", 9, false},
		{"equals-call", 14, true},
		{"other", 14, false},
	}
	for _, tt := range tests {
		pos := token.Position{Filename: "main.go", Line: tt.line, Column: 1}
		assert.Equal(t, tt.want, m.Suppressed(pos, tt.hint), "line %d hint %s", tt.line, tt.hint)
	}

	other := token.Position{Filename: "other.go", Line: 5}
	assert.False(t, m.Suppressed(other, "equals-call"))

	var none *Manager
	assert.False(t, none.Suppressed(other, "equals-call"))
}

func TestWholeFile(t *testing.T) {
	t.Parallel()
	src := `//nolint:equals-call
package main

func main() {
	x.equals(1)
}
`
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "file.go", src, parser.ParseComments)
	require.NoError(t, err)
	m := Parse(fset, f)

	assert.True(t, m.Suppressed(token.Position{Filename: "file.go", Line: 5}, "equals-call"))
	assert.False(t, m.Suppressed(token.Position{Filename: "file.go", Line: 5}, "other"))
}
