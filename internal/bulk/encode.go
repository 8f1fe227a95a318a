package bulk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/gnolang/bulkgrep/internal/syntax"
)

// Stream layout:
//
//	header := u32be(N) N*(name ';')
//	node   := '(' token[2] ['$' label ';'] node* ')'
//
// Labels escape '\' and ';' with a backslash. List nodes are not written;
// their elements sit between two Boundary leaf nodes labeled "(" and ")".
const (
	nodeOpen   = '('
	nodeClose  = ')'
	labelStart = '$'
	labelEnd   = ';'
	escape     = '\\'
)

// Encode serializes root with its name header and returns the bytes along
// with the set of plain names in the tree.
func Encode(root *syntax.Node) ([]byte, map[string]struct{}) {
	names := make(map[string]struct{})
	syntax.Names(root, names)

	var buf bytes.Buffer
	e := &encoder{w: bufio.NewWriter(&buf)}
	e.header(names)
	e.node(root)
	// writes to a bytes.Buffer cannot fail
	_ = e.w.Flush()
	return buf.Bytes(), names
}

// EncodeForDuplicates serializes root without the name header. Two subtrees
// with equal encodings have the same normalized shape.
func EncodeForDuplicates(root *syntax.Node) []byte {
	var buf bytes.Buffer
	e := &encoder{w: bufio.NewWriter(&buf)}
	e.node(root)
	_ = e.w.Flush()
	return buf.Bytes()
}

// EncodeTo writes the encoding of root to w.
func EncodeTo(w io.Writer, root *syntax.Node, withHeader bool) error {
	e := &encoder{w: bufio.NewWriter(w)}
	if withHeader {
		names := make(map[string]struct{})
		syntax.Names(root, names)
		e.header(names)
	}
	e.node(root)
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) byte(b byte) {
	if e.err == nil {
		e.err = e.w.WriteByte(b)
	}
}

func (e *encoder) string(s string) {
	if e.err == nil {
		_, e.err = e.w.WriteString(s)
	}
}

func (e *encoder) header(names map[string]struct{}) {
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(sorted)))
	if e.err == nil {
		_, e.err = e.w.Write(n[:])
	}
	for _, name := range sorted {
		e.string(name)
		e.byte(labelEnd)
	}
}

func (e *encoder) node(n *syntax.Node) {
	if n.Kind == syntax.List {
		e.leaf(syntax.Boundary, syntax.OpenList)
		for _, c := range n.Children {
			e.node(c)
		}
		e.leaf(syntax.Boundary, syntax.CloseList)
		return
	}
	if n.Wildcard != syntax.NotWildcard {
		e.leaf(Any.Kind, Any.Name)
		return
	}

	e.open(n.Kind, labelSymbol(n.Kind, n.Label()).Name)
	for _, c := range n.Children {
		e.node(c)
	}
	e.byte(nodeClose)
}

func (e *encoder) leaf(kind syntax.Kind, label string) {
	e.open(kind, label)
	e.byte(nodeClose)
}

func (e *encoder) open(kind syntax.Kind, label string) {
	tok := kind.Token()
	e.byte(nodeOpen)
	e.byte(tok[0])
	e.byte(tok[1])
	if label == "" {
		return
	}
	e.byte(labelStart)
	for i := 0; i < len(label); i++ {
		if c := label[i]; c == escape || c == labelEnd {
			e.byte(escape)
		}
		e.byte(label[i])
	}
	e.byte(labelEnd)
}
