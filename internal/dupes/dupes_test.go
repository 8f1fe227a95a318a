package dupes

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/bulkgrep/internal/syntax"
)

const first = `package a

func load(path string) ([]byte, error) {
	data, err := readAll(path)
	if err != nil {
		log("failed", path, err)
		return nil, err
	}
	return data, nil
}

func unrelated() int {
	return 1
}
`

const second = `package b

func loadAgain(path string) ([]byte, error) {
	data, err := readAll(path)
	if err != nil {
		log("failed", path, err)
		return nil, err
	}
	return data, nil
}

func different(path string) ([]byte, error) {
	data, err := readAll(path)
	if err == nil {
		log("unexpected", path, err)
		return nil, err
	}
	return data, nil
}
`

func parse(t *testing.T, fset *token.FileSet, name, src string) *syntax.Node {
	t.Helper()
	root, _, err := syntax.ParseFile(fset, name, []byte(src))
	require.NoError(t, err)
	return root
}

func TestGroups(t *testing.T) {
	t.Parallel()
	fset := token.NewFileSet()
	f := NewFinder(fset, 10)
	f.AddFile(parse(t, fset, "a.go", first))
	f.AddFile(parse(t, fset, "b.go", second))

	groups := f.Groups()
	require.Len(t, groups, 1)

	g := groups[0]
	assert.GreaterOrEqual(t, g.Size, 10)
	require.Len(t, g.Instances, 2)
	assert.Equal(t, "a.go", g.Instances[0].Start.Filename)
	assert.Equal(t, 3, g.Instances[0].Start.Line)
	assert.Equal(t, "b.go", g.Instances[1].Start.Filename)
	assert.Equal(t, 3, g.Instances[1].Start.Line)
}

func TestGroupsMinNodes(t *testing.T) {
	t.Parallel()
	fset := token.NewFileSet()
	f := NewFinder(fset, 1000)
	f.AddFile(parse(t, fset, "a.go", first))
	f.AddFile(parse(t, fset, "b.go", second))
	assert.Empty(t, f.Groups())
}

func TestConfirmSplitsCollisions(t *testing.T) {
	t.Parallel()
	fset := token.NewFileSet()
	root := parse(t, fset, "a.go", "package a\nfunc f() { x() }\nfunc g() { y() }\nfunc h() { x() }\n")

	var bucket []candidate
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind == syntax.Block {
			bucket = append(bucket, candidate{encoding: []byte("same"), node: n.Origin})
		}
		return true
	})
	require.Len(t, bucket, 3)

	clusters := confirm(bucket)
	require.Len(t, clusters, 2)
	assert.Len(t, clusters[0], 2)
	assert.Len(t, clusters[1], 1)
}
