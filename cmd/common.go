package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gnolang/bulkgrep/formatter"
	"github.com/gnolang/bulkgrep/scanner"
	"github.com/gnolang/bulkgrep/search"
)

const defaultConfigHelp = search.DefaultConfigFile + ", or built-in hints"

func (o *options) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

// loadConfig reads the hints file. Without --config, a missing default file
// falls back to the built-in hints.
func (o *options) loadConfig() (search.Config, error) {
	path := o.cfgFile
	if path == "" {
		path = search.DefaultConfigFile
	}
	config, err := search.LoadConfig(path)
	if o.cfgFile == "" && errors.Is(err, os.ErrNotExist) {
		o.logger.Debug("no hints file, using built-in hints", zap.String("path", path))
		return search.DefaultConfig(), nil
	}
	return config, err
}

func (o *options) newEngine(ctx context.Context, ignoreHints, ignorePaths string) (*search.Engine, error) {
	config, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load hints: %w", err)
	}
	engine, err := search.NewEngine(ctx, o.logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search engine: %w", err)
	}
	for _, hint := range splitList(ignoreHints) {
		engine.IgnoreHint(hint)
	}
	for _, path := range splitList(ignorePaths) {
		engine.IgnorePath(path)
	}
	return engine, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// collectFiles expands directories into their source files.
func collectFiles(paths []string, ignorePaths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := scanner.New(path, search.Extensions...).Ignore(ignorePaths...).Scan()
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}
	return files, nil
}

func groupByFile(matches []search.Match) ([]string, map[string][]search.Match) {
	byFile := make(map[string][]search.Match)
	for _, m := range matches {
		byFile[m.Filename] = append(byFile[m.Filename], m)
	}

	sortedFiles := make([]string, 0, len(byFile))
	for filename := range byFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)
	return sortedFiles, byFile
}

// printMatches writes matches as formatted snippets, or as JSON grouped by
// file. JSON goes to jsonOutput when set.
func printMatches(w io.Writer, logger *zap.Logger, matches []search.Match, isJSON bool, jsonOutput string) error {
	sortedFiles, byFile := groupByFile(matches)

	if !isJSON {
		for _, filename := range sortedFiles {
			sourceCode, err := formatter.ReadSourceCode(filename)
			if err != nil {
				logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
				continue
			}
			fmt.Fprint(w, formatter.GenerateFormattedMatches(byFile[filename], sourceCode))
		}
		return nil
	}

	d, err := json.MarshalIndent(byFile, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling matches to JSON: %w", err)
	}
	if jsonOutput == "" {
		fmt.Fprintln(w, string(d))
		return nil
	}
	if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}
