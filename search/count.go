package search

import (
	"bytes"
	"context"
	"fmt"
	"go/token"
	"os"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/bulkgrep/internal/bulk"
	"github.com/gnolang/bulkgrep/internal/index"
	"github.com/gnolang/bulkgrep/internal/syntax"
)

// Count is the number of matches of one hint over a set of files.
type Count struct {
	Hint    string `json:"hint"`
	Pattern string `json:"pattern"`
	Matches int    `json:"matches"`
	Files   int    `json:"files"`
}

// encodeFile parses and encodes a file, storing the stream in idx.
func encodeFile(idx *index.Index, filename string) ([]byte, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}
	root, _, err := syntax.ParseFile(token.NewFileSet(), filename, src)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	stream, names := bulk.Encode(root)

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	if err := idx.Put(filename, stream, sorted); err != nil {
		return nil, err
	}
	return stream, nil
}

// stream returns the stored stream of filename, encoding it again when the
// stored one is missing or stale. The second result reports re-encoding.
func stream(idx *index.Index, filename string) ([]byte, bool, error) {
	if s, ok := idx.Get(filename); ok {
		return s, false, nil
	}
	s, err := encodeFile(idx, filename)
	return s, true, err
}

// BuildIndex brings the streams of files in idx up to date and saves it. It
// returns the number of files encoded again. Files that fail to parse are
// logged and left out.
func BuildIndex(ctx context.Context, logger *zap.Logger, idx *index.Index, files []string) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		mu      sync.Mutex
		encoded int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, fresh, err := stream(idx, file)
			if err != nil {
				logger.Error("Error indexing file", zap.String("file", file), zap.Error(err))
				return nil
			}
			if fresh {
				mu.Lock()
				encoded++
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := idx.Save(); err != nil {
		return 0, fmt.Errorf("error saving index: %w", err)
	}
	logger.Info("index updated",
		zap.String("dir", idx.Dir),
		zap.Int("files", len(files)),
		zap.Int("encoded", encoded))
	return encoded, nil
}

// Count runs every enabled hint over the indexed streams of files and
// returns one Count per hint, in configuration order. Stale entries are
// encoded again and the index is saved. Nolint comments are not consulted
// since streams carry no comments.
func (e *Engine) Count(ctx context.Context, idx *index.Index, files []string) ([]Count, error) {
	var (
		mu      sync.Mutex
		matches = make(map[string]int)
		inFiles = make(map[string]int)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		if e.pathIgnored(file) {
			continue
		}
		g.Go(func() error {
			s, _, err := stream(idx, file)
			if err != nil {
				e.logger.Error("Error indexing file", zap.String("file", file), zap.Error(err))
				return nil
			}
			freq, err := e.compiled.MatchesWithFrequencies(gctx, bytes.NewReader(s))
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for pattern, n := range freq {
				matches[pattern] += n
				inFiles[pattern]++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := idx.Save(); err != nil {
		return nil, fmt.Errorf("error saving index: %w", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	var counts []Count
	for _, h := range e.hints {
		if e.ignoredHints[h.Name] {
			continue
		}
		counts = append(counts, Count{
			Hint:    h.Name,
			Pattern: h.Pattern,
			Matches: matches[h.Pattern],
			Files:   inFiles[h.Pattern],
		})
	}
	return counts, nil
}
