package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/bulkgrep/scanner"
)

// Processor searches a single file.
type Processor func(ctx context.Context, engine Searcher, filename string) ([]Match, error)

// ProcessFile is the default Processor.
func ProcessFile(ctx context.Context, engine Searcher, filename string) ([]Match, error) {
	return engine.Run(ctx, filename)
}

// ProcessFiles searches every path in turn. Progress bars for directories
// are written to progress, which may be nil.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Searcher,
	paths []string,
	progress io.Writer,
	processor Processor,
) ([]Match, error) {
	var allMatches []Match
	for _, path := range paths {
		matches, err := ProcessPath(ctx, logger, engine, path, progress, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allMatches = append(allMatches, matches...)
	}
	return allMatches, nil
}

// ProcessPath searches a file, or every source file below a directory using
// one worker per CPU. Files that fail to parse are logged and skipped.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Searcher,
	path string,
	progress io.Writer,
	processor Processor,
) ([]Match, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}
	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		return processor(ctx, engine, path)
	}

	files, err := scanner.New(path, Extensions...).Ignore(engine.IgnoredPaths()...).Scan()
	if err != nil {
		return nil, fmt.Errorf("error scanning %s: %w", path, err)
	}

	if progress == nil {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	defer bar.Finish()

	// results keeps file order regardless of completion order
	results := make([][]Match, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer bar.Add(1)
			matches, err := processor(gctx, engine, file.Path)
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				logger.Error("Error processing file", zap.String("file", file.Path), zap.Error(err))
				return nil
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches []Match
	for _, r := range results {
		matches = append(matches, r...)
	}
	logger.Debug("processed directory",
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("matches", len(matches)))
	return matches, nil
}

func hasDesiredExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
