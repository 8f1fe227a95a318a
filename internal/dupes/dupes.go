// Package dupes finds blocks of code that occur more than once.
//
// Every block is encoded in the header-less stream form and hashed. Blocks
// sharing a hash and an encoding are then compared as ast nodes before they
// are reported together.
package dupes

import (
	"bytes"
	"go/ast"
	"go/token"
	"sort"
	"sync"

	"github.com/go-toolsmith/astequal"
	"github.com/zeebo/xxh3"

	"github.com/gnolang/bulkgrep/internal/bulk"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

// DefaultMinNodes is the smallest block size considered by default.
const DefaultMinNodes = 20

// Instance is one occurrence of a duplicated block.
type Instance struct {
	Start token.Position
	End   token.Position
}

// Group is a set of equal blocks.
type Group struct {
	Hash      uint64
	Size      int
	Instances []Instance
}

type candidate struct {
	encoding []byte
	node     ast.Node
	size     int
	start    token.Position
	end      token.Position
}

// Finder accumulates the blocks of many files. AddFile may be called from
// several goroutines.
type Finder struct {
	fset     *token.FileSet
	minNodes int

	mu      sync.Mutex
	buckets map[uint64][]candidate
}

// NewFinder returns a finder reporting blocks of at least minNodes nodes.
// Positions are resolved against fset.
func NewFinder(fset *token.FileSet, minNodes int) *Finder {
	if minNodes <= 0 {
		minNodes = DefaultMinNodes
	}
	return &Finder{
		fset:     fset,
		minNodes: minNodes,
		buckets:  make(map[uint64][]candidate),
	}
}

// AddFile records every large enough block of a parsed file.
func (f *Finder) AddFile(root *syntax.Node) {
	var found []candidate
	syntax.Walk(root, func(n *syntax.Node) bool {
		if n.Kind != syntax.Block || n.Origin == nil {
			return true
		}
		size := syntax.Size(n)
		if size < f.minNodes {
			// nested blocks are smaller still
			return false
		}
		found = append(found, candidate{
			encoding: bulk.EncodeForDuplicates(n),
			node:     n.Origin,
			size:     size,
			start:    f.fset.Position(n.Origin.Pos()),
			end:      f.fset.Position(n.Origin.End()),
		})
		return true
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range found {
		h := xxh3.Hash(c.encoding)
		f.buckets[h] = append(f.buckets[h], c)
	}
}

// Groups returns every group of at least two equal blocks, largest first.
// A group whose blocks all sit inside the blocks of a larger group is left
// out.
func (f *Finder) Groups() []Group {
	f.mu.Lock()
	defer f.mu.Unlock()

	var groups []Group
	for h, bucket := range f.buckets {
		for _, cluster := range confirm(bucket) {
			if len(cluster) < 2 {
				continue
			}
			g := Group{Hash: h, Size: cluster[0].size}
			for _, c := range cluster {
				g.Instances = append(g.Instances, Instance{Start: c.start, End: c.end})
			}
			sort.Slice(g.Instances, func(i, j int) bool {
				return less(g.Instances[i].Start, g.Instances[j].Start)
			})
			groups = append(groups, g)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return less(groups[i].Instances[0].Start, groups[j].Instances[0].Start)
	})

	var kept []Group
	var covered []Instance
	for _, g := range groups {
		if allInside(g.Instances, covered) {
			continue
		}
		kept = append(kept, g)
		covered = append(covered, g.Instances...)
	}
	return kept
}

// confirm splits a hash bucket into clusters of blocks that are really
// equal.
func confirm(bucket []candidate) [][]candidate {
	var clusters [][]candidate
next:
	for _, c := range bucket {
		for i, cl := range clusters {
			head := cl[0]
			if bytes.Equal(head.encoding, c.encoding) && astequal.Node(head.node, c.node) {
				clusters[i] = append(clusters[i], c)
				continue next
			}
		}
		clusters = append(clusters, []candidate{c})
	}
	return clusters
}

func less(a, b token.Position) bool {
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	return a.Offset < b.Offset
}

func allInside(instances, covered []Instance) bool {
	for _, in := range instances {
		inside := false
		for _, c := range covered {
			if in.Start.Filename == c.Start.Filename &&
				in.Start.Offset >= c.Start.Offset && in.End.Offset <= c.End.Offset {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}
