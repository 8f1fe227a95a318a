package search

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"

	"golang.org/x/tools/go/analysis"

	"github.com/gnolang/bulkgrep/internal/syntax"
)

// NewAnalyzer exposes the hints of e as an analysis.Analyzer. Each match is
// reported with the hint name as its category. Runs stop with ctx.Err() once
// ctx is done.
func NewAnalyzer(ctx context.Context, e *Engine) *analysis.Analyzer {
	return &analysis.Analyzer{
		Name: "bulkgrep",
		Doc:  "reports code matching the configured structural hints",
		Run: func(pass *analysis.Pass) (any, error) {
			for _, f := range pass.Files {
				matches, err := e.matchFile(ctx, pass.Fset, syntax.FromAST(f), f)
				if err != nil {
					return nil, err
				}
				for _, m := range matches {
					pass.Report(analysis.Diagnostic{
						Pos:      positionIn(pass.Fset, f, m.Start),
						End:      positionIn(pass.Fset, f, m.End),
						Category: m.Hint,
						Message:  m.Message,
					})
				}
			}
			return nil, nil
		},
	}
}

func positionIn(fset *token.FileSet, f *ast.File, p token.Position) token.Pos {
	tf := fset.File(f.Pos())
	if tf == nil || p.Offset > tf.Size() {
		return token.NoPos
	}
	return tf.Pos(p.Offset)
}

// RunAnalyzer runs analyzer over already parsed files and returns the
// diagnostics it reports.
func RunAnalyzer(analyzer *analysis.Analyzer, fset *token.FileSet, files []*ast.File) ([]analysis.Diagnostic, error) {
	var diagnostics []analysis.Diagnostic
	pass := &analysis.Pass{
		Analyzer: analyzer,
		Fset:     fset,
		Files:    files,
		Report: func(d analysis.Diagnostic) {
			diagnostics = append(diagnostics, d)
		},
	}

	if _, err := analyzer.Run(pass); err != nil {
		return nil, fmt.Errorf("analyzer %s: %w", analyzer.Name, err)
	}
	return diagnostics, nil
}
