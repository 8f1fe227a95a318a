package syntax

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholders are rewritten into identifiers with these prefixes so the
// pattern text can go through go/parser.
const (
	singlePrefix = "__bulkgrep_w_"
	multiPrefix  = "__bulkgrep_m_"
)

var (
	ErrEmptyPattern   = errors.New("empty pattern")
	ErrInvalidPattern = errors.New("invalid pattern")
)

func isSinglePlaceholder(name string) bool { return strings.HasPrefix(name, singlePrefix) }
func isMultiPlaceholder(name string) bool  { return strings.HasPrefix(name, multiPrefix) }

// placeholderName maps a rewritten identifier back to its "$x" / "$x$"
// spelling and leaves other names untouched.
func placeholderName(name string) string {
	switch {
	case isMultiPlaceholder(name):
		return WildcardName + strings.TrimPrefix(name, multiPrefix) + WildcardName
	case isSinglePlaceholder(name):
		return WildcardName + strings.TrimPrefix(name, singlePrefix)
	}
	return name
}

// rewritePlaceholders replaces "$name" with a single wildcard identifier and
// "$name$" with a multi wildcard identifier. String, rune and comment
// contents are copied verbatim.
func rewritePlaceholders(src string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(src) + 16)

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			end := skipQuoted(src, i)
			sb.WriteString(src[i:end])
			i = end
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			end := skipComment(src, i)
			sb.WriteString(src[i:end])
			i = end
		case c == '$':
			j := i + 1
			for j < len(src) {
				r, size := utf8.DecodeRuneInString(src[j:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				j += size
			}
			if j == i+1 {
				return "", fmt.Errorf("%w: placeholder without a name at offset %d", ErrInvalidPattern, i)
			}
			name := src[i+1 : j]
			if j < len(src) && src[j] == '$' {
				sb.WriteString(multiPrefix + name)
				j++
			} else {
				sb.WriteString(singlePrefix + name)
			}
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

func skipQuoted(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if quote != '`' {
				j++
			}
		case quote:
			return j + 1
		}
	}
	return len(src)
}

func skipComment(src string, i int) int {
	if src[i+1] == '/' {
		if end := strings.IndexByte(src[i:], '\n'); end >= 0 {
			return i + end
		}
		return len(src)
	}
	if end := strings.Index(src[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 2
	}
	return len(src)
}

// ParsePattern parses pattern text into a normalized tree. The text may be an
// expression, a single statement (including a braced block) or a single
// top-level declaration, with "$x" and "$x$" placeholders.
func ParsePattern(src string) (*Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptyPattern
	}
	rewritten, err := rewritePlaceholders(src)
	if err != nil {
		return nil, err
	}

	if expr, err := parser.ParseExpr(rewritten); err == nil {
		return FromAST(expr), nil
	}

	fset := token.NewFileSet()
	body := "package p\nfunc _() {\n" + rewritten + "\n}\n"
	if f, err := parser.ParseFile(fset, "pattern.go", body, parser.SkipObjectResolution); err == nil {
		stmts := f.Decls[0].(*ast.FuncDecl).Body.List
		if len(stmts) != 1 {
			return nil, fmt.Errorf("%w: %q holds %d statements, wrap them in braces", ErrInvalidPattern, src, len(stmts))
		}
		if ds, ok := stmts[0].(*ast.DeclStmt); ok {
			// "type T ..." and "var v ..." also parse as statements; match
			// them as declarations so they find top-level ones too.
			return FromAST(ds.Decl), nil
		}
		return FromAST(stmts[0]), nil
	}

	f, err := parser.ParseFile(fset, "pattern.go", "package p\n"+rewritten, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, src, err)
	}
	if len(f.Decls) != 1 {
		return nil, fmt.Errorf("%w: %q holds %d declarations", ErrInvalidPattern, src, len(f.Decls))
	}
	return FromAST(f.Decls[0]), nil
}

// ParseFile parses Go source into a normalized tree, returning the ast as
// well so callers can resolve positions and comments.
func ParseFile(fset *token.FileSet, filename string, src []byte) (*Node, *ast.File, error) {
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, nil, err
	}
	return FromAST(f), f, nil
}
