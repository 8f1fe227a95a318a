package search

import (
	"context"
	"fmt"
	"go/ast"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"
)

// IsPackagePattern reports whether arg names packages, like ./..., rather
// than a file or directory.
func IsPackagePattern(arg string) bool {
	return strings.Contains(arg, "...")
}

// LoadPackages parses the packages matched by patterns, relative to dir.
func LoadPackages(ctx context.Context, dir string, patterns ...string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Tests:   true,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("error loading packages: %w", err)
	}
	return pkgs, nil
}

// RunPackages runs the hints over loaded packages through NewAnalyzer.
// Files shared by a package and its test variant are searched once.
func (e *Engine) RunPackages(ctx context.Context, logger *zap.Logger, pkgs []*packages.Package) ([]Match, error) {
	if logger == nil {
		logger = e.logger
	}
	analyzer := NewAnalyzer(ctx, e)
	seen := make(map[string]bool)

	var matches []Match
	for _, pkg := range pkgs {
		for _, perr := range pkg.Errors {
			logger.Warn("package error", zap.String("package", pkg.PkgPath), zap.String("error", perr.Msg))
		}

		var files []*ast.File
		for _, f := range pkg.Syntax {
			name := pkg.Fset.Position(f.Pos()).Filename
			if seen[name] || e.pathIgnored(name) {
				continue
			}
			seen[name] = true
			files = append(files, f)
		}
		if len(files) == 0 {
			continue
		}

		diagnostics, err := RunAnalyzer(analyzer, pkg.Fset, files)
		if err != nil {
			return nil, err
		}
		for _, d := range diagnostics {
			matches = append(matches, e.fromDiagnostic(pkg, d))
		}
	}
	SortMatches(matches)
	return matches, nil
}

func (e *Engine) fromDiagnostic(pkg *packages.Package, d analysis.Diagnostic) Match {
	start := pkg.Fset.Position(d.Pos)
	m := Match{
		Hint:     d.Category,
		Filename: start.Filename,
		Message:  d.Message,
		Start:    start,
		End:      pkg.Fset.Position(d.End),
	}
	for _, h := range e.hints {
		if h.Name == d.Category {
			m.Severity = h.Severity
			break
		}
	}
	for _, f := range pkg.Syntax {
		if f.FileStart <= d.Pos && d.Pos <= f.FileEnd {
			m.Func = enclosingFunc(f, d.Pos, d.End)
			break
		}
	}
	return m
}
