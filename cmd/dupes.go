package cmd

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/bulkgrep/formatter"
	"github.com/gnolang/bulkgrep/internal/dupes"
	"github.com/gnolang/bulkgrep/internal/syntax"
	"github.com/gnolang/bulkgrep/search"
)

func newDupesCmd(opts *options) *cobra.Command {
	var (
		minNodes    int
		ignorePaths string
		jsonOutput  bool
		outPath     string
	)
	cmd := &cobra.Command{
		Use:   "dupes [paths...]",
		Short: "Report blocks of code that occur more than once",
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
			groups, err := findDuplicates(ctx, opts.logger, files, minNodes)
			if err != nil {
				return err
			}

			matches := duplicateMatches(groups)
			if err := printMatches(cmd.OutOrStdout(), opts.logger, matches, jsonOutput, outPath); err != nil {
				return err
			}
			if len(matches) > 0 {
				return ErrMatchesFound
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minNodes, "min-nodes", dupes.DefaultMinNodes, "Smallest block size, in syntax nodes")
	cmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output duplicates in JSON format")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	return cmd
}

func findDuplicates(ctx context.Context, logger *zap.Logger, files []string, minNodes int) ([]dupes.Group, error) {
	fset := token.NewFileSet()
	finder := dupes.NewFinder(fset, minNodes)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			root, _, err := syntax.ParseFile(fset, file, src)
			if err != nil {
				logger.Error("Error parsing file", zap.String("file", file), zap.Error(err))
				return nil
			}
			finder.AddFile(root)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return finder.Groups(), nil
}

// duplicateMatches reports each instance of a group, pointing at the next
// instance of the same group.
func duplicateMatches(groups []dupes.Group) []search.Match {
	var matches []search.Match
	for _, g := range groups {
		for i, in := range g.Instances {
			other := g.Instances[(i+1)%len(g.Instances)].Start
			matches = append(matches, search.Match{
				Hint:     formatter.DuplicateHint,
				Filename: in.Start.Filename,
				Severity: search.SeverityInfo,
				Message: fmt.Sprintf("block of %d nodes repeated %d times, also at %s:%d:%d",
					g.Size, len(g.Instances), other.Filename, other.Line, other.Column),
				Start: in.Start,
				End:   in.End,
			})
		}
	}
	search.SortMatches(matches)
	return matches
}
