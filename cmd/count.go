package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gnolang/bulkgrep/internal/index"
)

const defaultIndexDir = ".bulkgrep"

type countOptions struct {
	indexDir    string
	ignoreHints string
	ignorePaths string
	jsonOutput  bool
}

func newCountCmd(opts *options) *cobra.Command {
	co := &countOptions{}
	cmd := &cobra.Command{
		Use:   "count [paths...]",
		Short: "Count the matches of every hint using the encoded index",
		Long: `Counts matches over the encoded streams kept in the index, encoding files
that are missing or changed. Nolint comments are not applied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("please provide file or directory paths")
			}
			ctx, cancel := opts.context()
			defer cancel()

			engine, err := opts.newEngine(ctx, co.ignoreHints, co.ignorePaths)
			if err != nil {
				return err
			}
			files, err := collectFiles(args, splitList(co.ignorePaths))
			if err != nil {
				return err
			}
			idx, err := index.Open(co.indexDir)
			if err != nil {
				return err
			}

			counts, err := engine.Count(ctx, idx, files)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if co.jsonOutput {
				d, err := json.MarshalIndent(counts, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(d))
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "HINT\tMATCHES\tFILES\tPATTERN")
			for _, c := range counts {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", c.Hint, c.Matches, c.Files, c.Pattern)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&co.indexDir, "index-dir", defaultIndexDir, "Directory of the encoded index")
	cmd.Flags().StringVar(&co.ignoreHints, "ignore", "", "Comma-separated list of hints to ignore")
	cmd.Flags().StringVar(&co.ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	cmd.Flags().BoolVar(&co.jsonOutput, "json", false, "Output counts in JSON format")
	return cmd
}
