package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gnolang/bulkgrep/internal/index"
	"github.com/gnolang/bulkgrep/search"
)

func newIndexCmd(opts *options) *cobra.Command {
	var (
		indexDir    string
		ignorePaths string
		maxAge      time.Duration
		rebuild     bool
	)
	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Encode files into the index used by count",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("please provide file or directory paths")
			}
			ctx, cancel := opts.context()
			defer cancel()

			files, err := collectFiles(args, splitList(ignorePaths))
			if err != nil {
				return err
			}
			idx, err := index.Open(indexDir)
			if err != nil {
				return err
			}
			idx.SetMaxAge(maxAge)
			if rebuild {
				idx.InvalidateAll()
			}

			encoded, err := search.BuildIndex(ctx, opts.logger, idx, files)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files (%d encoded) in %s\n", len(files), encoded, idx.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&indexDir, "index-dir", defaultIndexDir, "Directory of the encoded index")
	cmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Encode again entries older than this (0 keeps them)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop the index and encode every file")
	return cmd
}
