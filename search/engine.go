package search

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnolang/bulkgrep/internal/bulk"
	"github.com/gnolang/bulkgrep/internal/nolint"
	"github.com/gnolang/bulkgrep/internal/prefilter"
	"github.com/gnolang/bulkgrep/internal/syntax"
	"github.com/gnolang/bulkgrep/scanner"
)

// Extensions are the file extensions searched in directories.
var Extensions = []string{".go", ".gno"}

// Match is one occurrence of a hint in a file.
type Match struct {
	Hint     string         `json:"hint"`
	Filename string         `json:"filename"`
	Message  string         `json:"message,omitempty"`
	Severity Severity       `json:"severity"`
	Func     string         `json:"func,omitempty"`
	Start    token.Position `json:"start"`
	End      token.Position `json:"end"`
}

// Searcher runs hints over files.
type Searcher interface {
	Run(ctx context.Context, filename string) ([]Match, error)
	RunSource(ctx context.Context, filename string, src []byte) ([]Match, error)
	IgnoreHint(name string)
	IgnorePath(path string)
	IgnoredPaths() []string
}

// Engine searches files for all enabled hints of a configuration at once.
type Engine struct {
	logger   *zap.Logger
	hints    []Hint
	compiled *bulk.Compiled
	filter   *prefilter.Filter
	// byPattern maps a pattern text to the hints sharing it.
	byPattern map[string][]int

	mu           sync.RWMutex
	ignoredHints map[string]bool
	ignoredPaths []string
}

var _ Searcher = (*Engine)(nil)

// NewEngine compiles the enabled hints of config into one automaton.
func NewEngine(ctx context.Context, logger *zap.Logger, config Config) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		logger:       logger,
		hints:        config.Enabled(),
		byPattern:    make(map[string][]int),
		ignoredHints: make(map[string]bool),
	}

	var patterns []bulk.Pattern
	for i, h := range e.hints {
		if _, ok := e.byPattern[h.Pattern]; !ok {
			tree, err := syntax.ParsePattern(h.Pattern)
			if err != nil {
				return nil, fmt.Errorf("hint %q: %w", h.Name, err)
			}
			patterns = append(patterns, bulk.Pattern{Text: h.Pattern, Tree: tree})
		}
		e.byPattern[h.Pattern] = append(e.byPattern[h.Pattern], i)
	}

	compiled, err := bulk.Compile(ctx, patterns)
	if err != nil {
		return nil, fmt.Errorf("error compiling hints: %w", err)
	}
	e.compiled = compiled

	required := make([][]string, compiled.Len())
	for i := range required {
		required[i] = compiled.RequiredNames(i)
	}
	if e.filter, err = prefilter.New(required); err != nil {
		return nil, err
	}

	logger.Debug("compiled hints",
		zap.Int("hints", len(e.hints)),
		zap.Int("patterns", compiled.Len()),
		zap.Int("states", compiled.States()))
	return e, nil
}

// Hints returns the enabled hints.
func (e *Engine) Hints() []Hint {
	return e.hints
}

// Compiled returns the automaton shared by all hints.
func (e *Engine) Compiled() *bulk.Compiled {
	return e.compiled
}

func (e *Engine) IgnoreHint(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredHints[name] = true
}

func (e *Engine) IgnorePath(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ignoredPaths = append(e.ignoredPaths, path)
}

func (e *Engine) IgnoredPaths() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.ignoredPaths...)
}

func (e *Engine) pathIgnored(filename string) bool {
	return scanner.New("").Ignore(e.IgnoredPaths()...).IsIgnored(filename)
}

// Run searches a file on disk.
func (e *Engine) Run(ctx context.Context, filename string) ([]Match, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	return e.RunSource(ctx, filename, src)
}

// RunSource searches src, reporting positions under filename.
func (e *Engine) RunSource(ctx context.Context, filename string, src []byte) ([]Match, error) {
	if e.pathIgnored(filename) {
		return nil, nil
	}
	if !e.filter.Any(src) {
		e.logger.Debug("skipped by prefilter", zap.String("file", filename))
		return nil, nil
	}

	fset := token.NewFileSet()
	root, f, err := syntax.ParseFile(fset, filename, src)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return e.matchFile(ctx, fset, root, f)
}

// matchFile runs the automaton over a parsed file and turns the results into
// matches, dropping those suppressed by nolint comments.
func (e *Engine) matchFile(ctx context.Context, fset *token.FileSet, root *syntax.Node, f *ast.File) ([]Match, error) {
	found, err := e.compiled.Match(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	suppress := nolint.Parse(fset, f)

	e.mu.RLock()
	defer e.mu.RUnlock()

	var matches []Match
	for text, paths := range found {
		for _, hi := range e.byPattern[text] {
			h := e.hints[hi]
			if e.ignoredHints[h.Name] {
				continue
			}
			for _, p := range paths {
				pos, end := p.Pos(), p.End()
				start := fset.Position(pos)
				if suppress.Suppressed(start, h.Name) {
					continue
				}
				matches = append(matches, Match{
					Hint:     h.Name,
					Filename: start.Filename,
					Message:  h.Message,
					Severity: h.Severity,
					Func:     enclosingFunc(f, pos, end),
					Start:    start,
					End:      fset.Position(end),
				})
			}
		}
	}
	SortMatches(matches)
	return matches, nil
}

// SortMatches orders matches by file, position and hint name.
func SortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Filename != b.Filename {
			return a.Filename < b.Filename
		}
		if a.Start.Offset != b.Start.Offset {
			return a.Start.Offset < b.Start.Offset
		}
		if a.End.Offset != b.End.Offset {
			return a.End.Offset > b.End.Offset
		}
		return a.Hint < b.Hint
	})
}

// enclosingFunc names the function declaration containing [pos, end), with
// its receiver type for methods.
func enclosingFunc(f *ast.File, pos, end token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	path, _ := astutil.PathEnclosingInterval(f, pos, end)
	for _, n := range path {
		fn, ok := n.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fn.Recv == nil || len(fn.Recv.List) == 0 {
			return fn.Name.Name
		}
		return receiverName(fn.Recv.List[0].Type) + "." + fn.Name.Name
	}
	return ""
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return "?"
}
