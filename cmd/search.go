package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/bulkgrep/formatter"
	"github.com/gnolang/bulkgrep/search"
)

type searchOptions struct {
	ignoreHints string
	ignorePaths string
	jsonOutput  bool
	outPath     string
	watch       bool
}

func newSearchCmd(opts *options) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [paths...]",
		Short: "Report every match of the configured hints",
		Long: `Searches files, directories or package patterns (./...) for all hints at once.
Example) bulkgrep search --ignore equals-call ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("please provide file or directory paths")
			}
			ctx, cancel := opts.context()
			defer cancel()

			engine, err := opts.newEngine(ctx, so.ignoreHints, so.ignorePaths)
			if err != nil {
				return err
			}

			matches, err := runSearch(ctx, opts.logger, engine, args, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := printMatches(cmd.OutOrStdout(), opts.logger, matches, so.jsonOutput, so.outPath); err != nil {
				return err
			}

			if so.watch {
				return watch(opts.logger, engine, args, cmd.OutOrStdout())
			}
			if len(matches) > 0 {
				return ErrMatchesFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&so.ignoreHints, "ignore", "", "Comma-separated list of hints to ignore")
	cmd.Flags().StringVar(&so.ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	cmd.Flags().BoolVar(&so.jsonOutput, "json", false, "Output matches in JSON format")
	cmd.Flags().StringVarP(&so.outPath, "output", "o", "", "Output path (when using JSON)")
	cmd.Flags().BoolVarP(&so.watch, "watch", "w", false, "Search changed files again until interrupted")
	return cmd
}

// runSearch searches plain paths with search.ProcessFiles and package
// patterns through go/packages.
func runSearch(ctx context.Context, logger *zap.Logger, engine search.Searcher, args []string, progress io.Writer) ([]search.Match, error) {
	var paths, patterns []string
	for _, arg := range args {
		if search.IsPackagePattern(arg) {
			patterns = append(patterns, arg)
		} else {
			paths = append(paths, arg)
		}
	}

	matches, err := search.ProcessFiles(ctx, logger, engine, paths, progress, search.ProcessFile)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return matches, nil
	}

	e, ok := engine.(*search.Engine)
	if !ok {
		return nil, fmt.Errorf("package patterns %v need the hint engine", patterns)
	}
	pkgs, err := search.LoadPackages(ctx, ".", patterns...)
	if err != nil {
		return nil, err
	}
	found, err := e.RunPackages(ctx, logger, pkgs)
	if err != nil {
		return nil, err
	}
	matches = append(matches, found...)
	search.SortMatches(matches)
	return matches, nil
}

// watch reports matches of changed files until interrupted.
func watch(logger *zap.Logger, engine search.Searcher, args []string, w io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := search.NewWatcher(logger, engine, func(filename string, matches []search.Match) {
		if len(matches) == 0 {
			logger.Info("no matches", zap.String("file", filename))
			return
		}
		sourceCode, err := formatter.ReadSourceCode(filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
			return
		}
		fmt.Fprint(w, formatter.GenerateFormattedMatches(matches, sourceCode))
	})
	if err != nil {
		return err
	}

	var dirs []string
	for _, arg := range args {
		if search.IsPackagePattern(arg) {
			arg = filepath.Dir(arg)
		}
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			arg = filepath.Dir(arg)
		}
		dirs = append(dirs, arg)
	}
	if err := watcher.Add(dirs...); err != nil {
		return err
	}
	logger.Info("watching for changes", zap.Strings("dirs", dirs))

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
