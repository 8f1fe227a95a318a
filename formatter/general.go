package formatter

type GeneralMatchFormatter struct{}

func (f *GeneralMatchFormatter) MatchTemplate() string {
	return `{{header .Hint .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .EndLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{underlineAndMessage .Message .Padding .StartLine .EndLine .StartColumn .EndColumn .SnippetLines .CommonIndent -}}
{{enclosing .Padding .Func}}
`
}

// DuplicateFormatter shows only the first line of a duplicated block.
type DuplicateFormatter struct{}

func (f *DuplicateFormatter) MatchTemplate() string {
	return `{{header .Hint .Severity .MaxLineNumWidth .Filename .StartLine .StartColumn}}
{{snippet .SnippetLines .StartLine .StartLine .MaxLineNumWidth .CommonIndent .Padding -}}
{{message .Padding .Message -}}
{{enclosing .Padding .Func}}
`
}
