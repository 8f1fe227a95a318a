package formatter

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"unicode"

	"github.com/fatih/color"

	"github.com/gnolang/bulkgrep/search"
)

const tabWidth = 8

// DuplicateHint is the hint name given to duplicated blocks.
const DuplicateHint = "duplicate-block"

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	infoStyle    = color.New(color.FgHiCyan, color.Bold)
	hintStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	messageStyle = color.New(color.FgRed, color.Bold)
	funcStyle    = color.New(color.FgGreen, color.Bold)
)

// SourceCode stores the content of a source code file.
type SourceCode struct {
	Lines []string
}

// ReadSourceCode reads the content of a file and returns it as a `SourceCode` struct.
func ReadSourceCode(filename string) (*SourceCode, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return NewSourceCode(content), nil
}

func NewSourceCode(content []byte) *SourceCode {
	return &SourceCode{Lines: strings.Split(string(content), "\n")}
}

// matchFormatter is the interface that wraps the MatchTemplate method.
type matchFormatter interface {
	MatchTemplate() string
}

// getMatchFormatter returns the formatter for a hint, defaulting to
// GeneralMatchFormatter.
func getMatchFormatter(hint string) matchFormatter {
	switch hint {
	case DuplicateHint:
		return &DuplicateFormatter{}
	default:
		return &GeneralMatchFormatter{}
	}
}

var funcMap = template.FuncMap{
	"header":              header,
	"snippet":             codeSnippet,
	"underlineAndMessage": underlineAndMessage,
	"message":             message,
	"enclosing":           enclosing,
}

var templates = map[string]*template.Template{}

func init() {
	for _, f := range []matchFormatter{&GeneralMatchFormatter{}, &DuplicateFormatter{}} {
		text := f.MatchTemplate()
		templates[text] = template.Must(template.New("match").Funcs(funcMap).Parse(text))
	}
}

// GenerateFormattedMatches formats matches of one file into a human-readable
// string.
func GenerateFormattedMatches(matches []search.Match, snippet *SourceCode) string {
	var builder strings.Builder
	for _, m := range matches {
		builder.WriteString(buildMatch(m, snippet, getMatchFormatter(m.Hint)))
	}
	return builder.String()
}

type MatchData struct {
	Severity        string
	Hint            string
	Filename        string
	Func            string
	Padding         string
	StartLine       int
	StartColumn     int
	EndLine         int
	EndColumn       int
	MaxLineNumWidth int
	Message         string
	SnippetLines    []string
	CommonIndent    string
}

func buildMatch(m search.Match, snippet *SourceCode, formatter matchFormatter) string {
	startLine := m.Start.Line
	endLine := m.End.Line
	maxLineNumWidth := calculateMaxLineNumWidth(endLine)
	padding := strings.Repeat(" ", maxLineNumWidth+1)

	var commonIndent string
	if isValidLineRange(startLine, endLine, snippet.Lines) {
		commonIndent = findCommonIndent(snippet.Lines[startLine-1 : endLine])
	}

	// match ends are exclusive, underlines inclusive
	endColumn := m.End.Column
	if endColumn > 1 {
		endColumn--
	}

	message := m.Message
	if message == "" {
		message = m.Hint
	}

	data := MatchData{
		Severity:        m.Severity.String(),
		Hint:            m.Hint,
		Filename:        m.Filename,
		Func:            m.Func,
		StartLine:       startLine,
		StartColumn:     m.Start.Column,
		EndLine:         endLine,
		EndColumn:       endColumn,
		Message:         message,
		MaxLineNumWidth: maxLineNumWidth,
		Padding:         padding,
		CommonIndent:    commonIndent,
		SnippetLines:    snippet.Lines,
	}

	tmpl, ok := templates[formatter.MatchTemplate()]
	if !ok {
		tmpl = template.Must(template.New("match").Funcs(funcMap).Parse(formatter.MatchTemplate()))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting match: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(hint string, severity string, maxLineNumWidth int, filename string, startLine int, startColumn int) string {
	var endString string
	switch severity {
	case "error":
		endString = errorStyle.Sprintf("error: ")
	case "warning":
		endString = warningStyle.Sprintf("warning: ")
	case "info":
		endString = infoStyle.Sprintf("info: ")
	}

	endString += hintStyle.Sprintf("%s\n", hint)

	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += fileStyle.Sprintf("%s:%d:%d", filename, startLine, startColumn)

	return endString
}

func codeSnippet(snippetLines []string, startLine int, endLine int, maxLineNumWidth int, commonIndent string, padding string) string {
	var endString string
	endString = lineStyle.Sprintf("%s|\n", padding)

	for i := startLine; i <= endLine; i++ {
		if i-1 < 0 || i-1 >= len(snippetLines) {
			continue
		}

		line := strings.TrimPrefix(snippetLines[i-1], commonIndent)
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, i)

		endString += lineStyle.Sprintf("%s | ", lineNum) + line + "\n"
	}

	return endString
}

func underlineAndMessage(message string, padding string, startLine int, endLine int, startColumn int, endColumn int, snippetLines []string, commonIndent string) string {
	var endString string
	endString = lineStyle.Sprintf("%s| ", padding)

	if !isValidLineRange(startLine, endLine, snippetLines) {
		endString += messageStyle.Sprintf("%s\n", message)
		return endString
	}

	commonIndentWidth := calculateVisualColumn(commonIndent, len(commonIndent)+1)

	underlineStart := calculateVisualColumn(snippetLines[startLine-1], startColumn) - commonIndentWidth
	if underlineStart < 0 {
		underlineStart = 0
	}

	underlineEnd := calculateVisualColumn(snippetLines[endLine-1], endColumn) - commonIndentWidth
	underlineLength := underlineEnd - underlineStart + 1
	if underlineLength < 1 {
		underlineLength = 1
	}

	endString += strings.Repeat(" ", underlineStart)
	endString += messageStyle.Sprintf("%s\n", strings.Repeat("~", underlineLength))

	endString += lineStyle.Sprintf("%s= ", padding)
	endString += messageStyle.Sprintf("%s\n", message)

	return endString
}

func message(padding string, message string) string {
	return lineStyle.Sprintf("%s= ", padding) + messageStyle.Sprintf("%s\n", message)
}

func enclosing(padding string, fn string) string {
	if fn == "" {
		return ""
	}
	return lineStyle.Sprintf("%s= ", padding) + funcStyle.Sprintf("in %s\n", fn)
}

func isValidLineRange(startLine int, endLine int, snippetLines []string) bool {
	return startLine > 0 &&
		endLine > 0 &&
		startLine <= endLine &&
		startLine <= len(snippetLines) &&
		endLine <= len(snippetLines)
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

// calculateVisualColumn calculates the visual column position
// in a string. taking into account tab characters.
func calculateVisualColumn(line string, column int) int {
	if column < 0 {
		return 0
	}
	visualColumn := 0
	for i, ch := range line {
		if i+1 == column {
			break
		}
		if ch == '\t' {
			visualColumn += tabWidth - (visualColumn % tabWidth)
		} else {
			visualColumn++
		}
	}
	return visualColumn
}

// findCommonIndent finds the common indent in the code snippet.
func findCommonIndent(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	var indent []rune
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if trimmed == "" {
			continue
		}
		current := []rune(line[:len(line)-len(trimmed)])
		if !found {
			indent, found = current, true
		} else {
			indent = commonPrefix(indent, current)
		}
		if len(indent) == 0 {
			return ""
		}
	}
	return string(indent)
}

// commonPrefix finds the common prefix of two strings.
func commonPrefix(a, b []rune) []rune {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
