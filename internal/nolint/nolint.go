// Package nolint reads "//nolint" and "//nolint:hint1,hint2" comments and
// answers whether a match of a hint at a position is suppressed.
//
// A directive placed before the package clause covers the whole file. An
// inline directive covers the statement it trails. A directive on its own
// line covers the statement or function declaration on the next line, and
// otherwise only its own line.
package nolint

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const prefix = "//nolint"

var (
	errNotDirective = errors.New("not a nolint directive")
	errNoHints      = errors.New("nolint directive has a colon but no hints")
)

// Manager holds the suppressed ranges of one or more files.
type Manager struct {
	scopes map[string][]scope
}

type scope struct {
	// hints is empty when every hint is suppressed.
	hints      map[string]struct{}
	start, end token.Position
}

// Parse collects the directives of f.
func Parse(fset *token.FileSet, f *ast.File) *Manager {
	m := &Manager{scopes: make(map[string][]scope)}
	m.Add(fset, f)
	return m
}

// Add collects the directives of another file into m.
func (m *Manager) Add(fset *token.FileSet, f *ast.File) {
	p := &fileParser{
		fset:        fset,
		file:        f,
		stmts:       statementsByLine(fset, f),
		packageLine: fset.Position(f.Package).Line,
	}
	for _, group := range f.Comments {
		for _, c := range group.List {
			s, err := p.scope(c)
			if err != nil {
				continue
			}
			m.scopes[s.start.Filename] = append(m.scopes[s.start.Filename], s)
		}
	}
}

// Suppressed reports whether a match of hint at pos is covered by a
// directive.
func (m *Manager) Suppressed(pos token.Position, hint string) bool {
	if m == nil {
		return false
	}
	for _, s := range m.scopes[pos.Filename] {
		if pos.Line < s.start.Line || pos.Line > s.end.Line {
			continue
		}
		if len(s.hints) == 0 {
			return true
		}
		if _, ok := s.hints[hint]; ok {
			return true
		}
	}
	return false
}

type fileParser struct {
	fset        *token.FileSet
	file        *ast.File
	stmts       map[int]ast.Stmt
	packageLine int
}

func (p *fileParser) scope(c *ast.Comment) (scope, error) {
	hints, err := parseDirective(c.Text)
	if err != nil {
		return scope{}, err
	}
	s := scope{hints: hints}
	pos := p.fset.Position(c.Slash)

	if pos.Line < p.packageLine {
		s.start = p.fset.Position(p.file.Pos())
		s.end = p.fset.Position(p.file.End())
		return s, nil
	}

	if stmt, ok := p.stmts[pos.Line]; ok && pos.Offset > p.fset.Position(stmt.Pos()).Offset {
		s.start = p.fset.Position(stmt.Pos())
		s.end = p.fset.Position(stmt.End())
		return s, nil
	}

	if stmt, ok := p.stmts[pos.Line+1]; ok {
		s.start = pos
		s.end = p.fset.Position(stmt.End())
		return s, nil
	}

	if fn := p.funcAt(pos.Line + 1); fn != nil {
		s.start = pos
		s.end = p.fset.Position(fn.End())
		return s, nil
	}

	s.start, s.end = pos, pos
	return s, nil
}

func (p *fileParser) funcAt(line int) *ast.FuncDecl {
	for _, decl := range p.file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && p.fset.Position(fn.Pos()).Line == line {
			return fn
		}
	}
	return nil
}

// parseDirective returns the hint names of a nolint comment, empty for a
// bare "//nolint".
func parseDirective(text string) (map[string]struct{}, error) {
	rest, ok := strings.CutPrefix(text, prefix)
	if !ok {
		return nil, errNotDirective
	}
	hints := make(map[string]struct{})
	if rest == "" || rest[0] == ' ' {
		return hints, nil
	}
	rest, ok = strings.CutPrefix(rest, ":")
	if !ok {
		return nil, errNotDirective
	}
	// a trailing explanation after whitespace is allowed
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		rest = rest[:i]
	}
	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			hints[name] = struct{}{}
		}
	}
	if len(hints) == 0 {
		return nil, errNoHints
	}
	return hints, nil
}

// statementsByLine maps each line to the first statement starting on it.
func statementsByLine(fset *token.FileSet, f *ast.File) map[int]ast.Stmt {
	stmts := make(map[int]ast.Stmt)
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			line := fset.Position(stmt.Pos()).Line
			if _, seen := stmts[line]; !seen {
				stmts[line] = stmt
			}
		}
		return true
	})
	return stmts
}
