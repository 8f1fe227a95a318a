package search

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce groups bursts of writes to the same files into one run.
const DefaultDebounce = 100 * time.Millisecond

// Watcher searches files again whenever they are written.
type Watcher struct {
	logger   *zap.Logger
	engine   Searcher
	watcher  *fsnotify.Watcher
	report   func(filename string, matches []Match)
	Debounce time.Duration
}

// NewWatcher returns a watcher passing the matches of every changed file to
// report.
func NewWatcher(logger *zap.Logger, engine Searcher, report func(string, []Match)) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	return &Watcher{
		logger:   logger,
		engine:   engine,
		watcher:  w,
		report:   report,
		Debounce: DefaultDebounce,
	}, nil
}

// Add watches dir and every directory below it, except hidden ones.
func (w *Watcher) Add(dirs ...string) error {
	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	return nil
}

// Run handles file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !hasDesiredExtension(event.Name) {
				continue
			}
			pending[event.Name] = true
			if fire == nil {
				fire = time.After(w.Debounce)
			}
		case <-fire:
			fire = nil
			w.flush(ctx, pending)
			clear(pending)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) flush(ctx context.Context, pending map[string]bool) {
	files := make([]string, 0, len(pending))
	for name := range pending {
		files = append(files, name)
	}
	sort.Strings(files)

	for _, file := range files {
		matches, err := w.engine.Run(ctx, file)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				w.logger.Error("Error processing file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		w.logger.Debug("file changed", zap.String("file", file), zap.Int("matches", len(matches)))
		w.report(file, matches)
	}
}
