package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcher(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	filename := filepath.Join(dir, "sample.go")
	require.NoError(t, os.WriteFile(filename, []byte("package sample\n"), 0o644))

	type report struct {
		filename string
		matches  []Match
	}
	reports := make(chan report, 16)

	e := newTestEngine(t, testConfig())
	w, err := NewWatcher(zap.NewNop(), e, func(filename string, matches []Match) {
		reports <- report{filename, matches}
	})
	require.NoError(t, err)
	w.Debounce = 10 * time.Millisecond
	require.NoError(t, w.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filename, []byte(sample), 0o644))

	// a write may be seen half done first
	timeout := time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case r := <-reports:
			assert.Equal(t, filename, r.filename)
			found = len(r.matches) == 4
		case <-timeout:
			t.Fatal("no report after write")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
