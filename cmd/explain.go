package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gnolang/bulkgrep/internal/bulk"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

func newExplainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <pattern>...",
		Short: "Show how patterns are parsed and compiled",
		Long: `Prints the normalized tree, the names a file must contain and the
content tokens of each pattern. Example) bulkgrep explain '$a.equals($b)'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("please provide at least one pattern")
			}
			ctx, cancel := opts.context()
			defer cancel()

			patterns := make([]bulk.Pattern, len(args))
			for i, text := range args {
				tree, err := syntax.ParsePattern(text)
				if err != nil {
					return err
				}
				patterns[i] = bulk.Pattern{Text: text, Tree: tree}
			}
			compiled, err := bulk.Compile(ctx, patterns)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for i, p := range patterns {
				fmt.Fprintf(w, "pattern:  %s\n", p.Text)
				fmt.Fprintf(w, "tree:     %s\n", p.Tree)
				fmt.Fprintf(w, "requires: %s\n", strings.Join(compiled.RequiredNames(i), " "))
				fmt.Fprintf(w, "content:  %s\n\n", strings.Join(compiled.RequiredContent(i), " "))
			}
			fmt.Fprintf(w, "%d patterns, %d states\n", compiled.Len(), compiled.States())
			return nil
		},
	}
}
